package log

import (
	"context"
	"sync/atomic"
)

//nolint:gochecknoglobals // process-wide logger.
var global atomic.Pointer[Logger]

//nolint:gochecknoinits // install a usable default before configuration runs.
func init() {
	global.Store(New(Config{Level: "info"}))
}

// SetGlobalConfig rebuilds the global logger from the given config.
func SetGlobalConfig(cfg Config) {
	global.Store(New(cfg))
}

// GetGlobalLogger returns the process-wide logger.
func GetGlobalLogger() *Logger {
	return global.Load()
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	global.Load().Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	global.Load().Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	global.Load().Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	global.Load().Error(ctx, msg, fields...)
}
