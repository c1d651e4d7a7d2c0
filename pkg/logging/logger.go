// Package logging wraps zap with the process-wide logger every broker and
// bridge component writes through, plus a translation from the broker's
// numeric AkVCam-style log levels to zapcore levels.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// Level is the atomic level backing Logger, kept alive across Build so
// SetLevel can re-level the running logger without rebuilding it.
var Level zap.AtomicLevel

// Numeric log levels matching the preferences store's LogLevel setting.
const (
	LevelDefault   = -1
	LevelEmergency = 0
	LevelFatal     = 1
	LevelCritical  = 2
	LevelError     = 3
	LevelWarning   = 4
	LevelNotice    = 5
	LevelInfo      = 6
	LevelDebug     = 7
)

// ZapLevelForVCamLevel maps a preferences-store log level to the closest
// zapcore level; LevelDefault, LevelNotice and LevelInfo map to Info,
// matching the reference logger's default verbosity, and LevelDebug and
// anything above it map to Debug.
func ZapLevelForVCamLevel(level int) zapcore.Level {
	switch {
	case level == LevelDefault:
		return zapcore.InfoLevel
	case level <= LevelEmergency:
		return zapcore.DPanicLevel
	case level == LevelFatal:
		return zapcore.FatalLevel
	case level == LevelCritical:
		return zapcore.ErrorLevel
	case level == LevelError:
		return zapcore.ErrorLevel
	case level == LevelWarning:
		return zapcore.WarnLevel
	case level >= LevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger initializes the global logger
func InitLogger(level string, production bool) error {
	var config zap.Config

	if production {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
	} else {
		config = zap.NewDevelopmentConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Parse log level
	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	var err error
	Logger, err = config.Build()
	if err != nil {
		return err
	}
	Level = config.Level

	return nil
}

// SetLevel re-levels the running logger in place. It is a no-op before
// InitLogger has run.
func SetLevel(level zapcore.Level) {
	if Logger == nil {
		return
	}
	Level.SetLevel(level)
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		Logger.Sync()
	}
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Info(msg, fields...)
	}
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Debug(msg, fields...)
	}
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Warn(msg, fields...)
	}
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Error(msg, fields...)
	}
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Fatal(msg, fields...)
	}
}
