package config

import (
	"fmt"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcerrors"
)

// Config is the broker daemon's top-level configuration, loadable from a
// YAML file and then overridden by environment variables and CLI flags,
// in that order.
type Config struct {
	Service struct {
		Port           int    `yaml:"port"`
		Timeout        int    `yaml:"timeout_seconds"`
		PreferencesPath string `yaml:"preferences_path"`
	} `yaml:"service"`

	Logging struct {
		Level      string `yaml:"level"`
		Production bool   `yaml:"production"`
	} `yaml:"logging"`

	Monitoring struct {
		Enabled        bool `yaml:"enabled"`
		PrometheusPort int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Picture struct {
		DefaultPath string `yaml:"default_path"`
	} `yaml:"picture"`
}

// Default returns a Config populated with the reference broker's
// defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Service.Port = 37707
	cfg.Service.Timeout = 10
	cfg.Service.PreferencesPath = "preferences.json"
	cfg.Logging.Level = "info"
	cfg.Logging.Production = false
	cfg.Monitoring.Enabled = true
	cfg.Monitoring.PrometheusPort = 37708
	return cfg
}

// ValidateConfig validates the configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.Service.Port < 1 || cfg.Service.Port > 65535 {
		return vcerrors.NewConfigError("service.port", fmt.Sprintf("%d is not in range 1-65535", cfg.Service.Port))
	}
	if cfg.Service.Timeout < 0 {
		return vcerrors.NewConfigError("service.timeout_seconds", fmt.Sprintf("%d cannot be negative", cfg.Service.Timeout))
	}
	if cfg.Service.PreferencesPath == "" {
		return vcerrors.NewConfigError("service.preferences_path", "cannot be empty")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return vcerrors.NewConfigError("logging.level", fmt.Sprintf("%q is not one of debug, info, warn, error", cfg.Logging.Level))
	}

	if cfg.Monitoring.Enabled {
		if cfg.Monitoring.PrometheusPort < 1 || cfg.Monitoring.PrometheusPort > 65535 {
			return vcerrors.NewConfigError("monitoring.prometheus_port", fmt.Sprintf("%d is not in range 1-65535", cfg.Monitoring.PrometheusPort))
		}
		if cfg.Monitoring.PrometheusPort == cfg.Service.Port {
			return vcerrors.NewConfigError("monitoring.prometheus_port", fmt.Sprintf("%d conflicts with service.port", cfg.Monitoring.PrometheusPort))
		}
	}

	return nil
}
