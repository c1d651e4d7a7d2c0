package config

import (
	"os"
	"testing"

	"github.com/webcamoid/akvirtualcamera-go/pkg/logging"
)

func TestMain(m *testing.M) {
	if err := logging.InitLogger("info", false); err != nil {
		panic(err)
	}
	defer logging.Sync()

	os.Exit(m.Run())
}

func TestApplyEnvOverrides_ServicePort(t *testing.T) {
	os.Setenv("AKVCAM_SERVICE_PORT", "9999")
	defer os.Unsetenv("AKVCAM_SERVICE_PORT")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Service.Port != 9999 {
		t.Errorf("Service.Port = %d, want 9999", cfg.Service.Port)
	}
}

func TestApplyEnvOverrides_InvalidServicePort(t *testing.T) {
	os.Setenv("AKVCAM_SERVICE_PORT", "not-a-number")
	defer os.Unsetenv("AKVCAM_SERVICE_PORT")

	cfg := Default()
	original := cfg.Service.Port
	ApplyEnvOverrides(cfg)

	if cfg.Service.Port != original {
		t.Errorf("Service.Port = %d, want unchanged %d", cfg.Service.Port, original)
	}
}

func TestApplyEnvOverrides_ServiceTimeout(t *testing.T) {
	os.Setenv("AKVCAM_SERVICE_TIMEOUT", "30")
	defer os.Unsetenv("AKVCAM_SERVICE_TIMEOUT")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Service.Timeout != 30 {
		t.Errorf("Service.Timeout = %d, want 30", cfg.Service.Timeout)
	}
}

func TestApplyEnvOverrides_PreferencesPath(t *testing.T) {
	os.Setenv("AKVCAM_PREFERENCES_PATH", "/tmp/prefs.json")
	defer os.Unsetenv("AKVCAM_PREFERENCES_PATH")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Service.PreferencesPath != "/tmp/prefs.json" {
		t.Errorf("Service.PreferencesPath = %q, want /tmp/prefs.json", cfg.Service.PreferencesPath)
	}
}

func TestApplyEnvOverrides_LogLevel(t *testing.T) {
	os.Setenv("AKVCAM_LOG_LEVEL", "debug")
	defer os.Unsetenv("AKVCAM_LOG_LEVEL")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides_MonitoringEnabled(t *testing.T) {
	os.Setenv("AKVCAM_MONITORING_ENABLED", "false")
	defer os.Unsetenv("AKVCAM_MONITORING_ENABLED")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Monitoring.Enabled {
		t.Errorf("Monitoring.Enabled = true, want false")
	}
}

func TestApplyEnvOverrides_PrometheusPort(t *testing.T) {
	os.Setenv("AKVCAM_PROMETHEUS_PORT", "9090")
	defer os.Unsetenv("AKVCAM_PROMETHEUS_PORT")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Monitoring.PrometheusPort != 9090 {
		t.Errorf("Monitoring.PrometheusPort = %d, want 9090", cfg.Monitoring.PrometheusPort)
	}
}

func TestApplyEnvOverrides_NoOverridesLeavesDefaults(t *testing.T) {
	cfg := Default()
	want := *cfg
	ApplyEnvOverrides(cfg)

	if *cfg != want {
		t.Errorf("ApplyEnvOverrides mutated config with no environment set: got %+v, want %+v", *cfg, want)
	}
}
