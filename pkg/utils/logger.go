package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewFileLogger returns NewLogger(debug) teed into a size-rotated JSON log at path.
// An empty path is the same as NewLogger(debug).
func NewFileLogger(debug bool, path string) (*zap.Logger, error) {
	logger, err := NewLogger(debug)
	if err != nil || path == "" {
		return logger, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	level := zapcore.InfoLevel
	if debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
