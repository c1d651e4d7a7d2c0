package config

import (
	"os"
	"strconv"

	"github.com/webcamoid/akvirtualcamera-go/pkg/logging"
	"go.uber.org/zap"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
func ApplyEnvOverrides(cfg *Config) {
	if val := os.Getenv("AKVCAM_SERVICE_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			logging.Logger.Info("Override from environment",
				zap.String("var", "AKVCAM_SERVICE_PORT"),
				zap.Int("value", port),
			)
			cfg.Service.Port = port
		} else {
			logging.Logger.Warn("Invalid service port in environment variable",
				zap.String("value", val),
				zap.Error(err),
			)
		}
	}

	if val := os.Getenv("AKVCAM_SERVICE_TIMEOUT"); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil {
			logging.Logger.Info("Override from environment",
				zap.String("var", "AKVCAM_SERVICE_TIMEOUT"),
				zap.Int("value", timeout),
			)
			cfg.Service.Timeout = timeout
		} else {
			logging.Logger.Warn("Invalid service timeout in environment variable",
				zap.String("value", val),
				zap.Error(err),
			)
		}
	}

	if val := os.Getenv("AKVCAM_PREFERENCES_PATH"); val != "" {
		logging.Logger.Info("Override from environment",
			zap.String("var", "AKVCAM_PREFERENCES_PATH"),
			zap.String("value", val),
		)
		cfg.Service.PreferencesPath = val
	}

	if val := os.Getenv("AKVCAM_LOG_LEVEL"); val != "" {
		logging.Logger.Info("Override from environment",
			zap.String("var", "AKVCAM_LOG_LEVEL"),
			zap.String("value", val),
		)
		cfg.Logging.Level = val
	}

	if val := os.Getenv("AKVCAM_LOG_PRODUCTION"); val != "" {
		if production, err := strconv.ParseBool(val); err == nil {
			logging.Logger.Info("Override from environment",
				zap.String("var", "AKVCAM_LOG_PRODUCTION"),
				zap.Bool("value", production),
			)
			cfg.Logging.Production = production
		} else {
			logging.Logger.Warn("Invalid log production value in environment variable",
				zap.String("value", val),
				zap.Error(err),
			)
		}
	}

	if val := os.Getenv("AKVCAM_MONITORING_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			logging.Logger.Info("Override from environment",
				zap.String("var", "AKVCAM_MONITORING_ENABLED"),
				zap.Bool("value", enabled),
			)
			cfg.Monitoring.Enabled = enabled
		} else {
			logging.Logger.Warn("Invalid monitoring enabled value in environment variable",
				zap.String("value", val),
				zap.Error(err),
			)
		}
	}

	if val := os.Getenv("AKVCAM_PROMETHEUS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			logging.Logger.Info("Override from environment",
				zap.String("var", "AKVCAM_PROMETHEUS_PORT"),
				zap.Int("value", port),
			)
			cfg.Monitoring.PrometheusPort = port
		} else {
			logging.Logger.Warn("Invalid Prometheus port in environment variable",
				zap.String("value", val),
				zap.Error(err),
			)
		}
	}

	if val := os.Getenv("AKVCAM_PICTURE_PATH"); val != "" {
		logging.Logger.Info("Override from environment",
			zap.String("var", "AKVCAM_PICTURE_PATH"),
			zap.String("value", val),
		)
		cfg.Picture.DefaultPath = val
	}
}
