package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON logger writing to stderr. An unknown level falls back to info.
func NewLogger(level string) (*zap.Logger, error) {
	return build(level, "stderr")
}

// NewFileLogger writes JSON logs to path in addition to stderr.
func NewFileLogger(path, level string) (*zap.Logger, error) {
	return build(level, "stderr", path)
}

func build(level string, outputs ...string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	config.OutputPaths = outputs
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}

// ParseLevel maps a config string to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}
