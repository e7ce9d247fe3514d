package utils

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. level accepts zap level names; an
// unknown or empty level falls back to info.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil || strings.TrimSpace(level) == "" {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// LogEvent writes a standardized line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	zap.L().Info(message, eventFields(requestID, module, action)...)
}

// LogWarn is LogEvent at warn level, for degraded or suspicious data.
func LogWarn(requestID, module, action, message string, err error) {
	fields := eventFields(requestID, module, action)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	zap.L().Warn(message, fields...)
}

func eventFields(requestID, module, action string) []zap.Field {
	return []zap.Field{
		zap.String("module", strings.ToUpper(strings.TrimSpace(module))),
		zap.String("action", action),
		zap.String("request_id", strings.TrimSpace(requestID)),
	}
}
