package log

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a leveled, context-aware logger. All entry methods take a
// context so registered hooks can pull request-scoped fields out of it.
type Logger struct {
	zl    *zap.Logger
	hooks []Hook
}

// New builds a Logger from the given config.
func New(cfg Config) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder

	switch cfg.Format {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer
	if cfg.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, sink, parseLevel(cfg.Level))

	opts := []zap.Option{zap.AddCallerSkip(2)}
	if cfg.Debug {
		opts = append(opts, zap.AddCaller(), zap.Development())
	}

	zl := zap.New(core, opts...)
	if cfg.Name != "" {
		zl = zl.Named(cfg.Name)
	}

	return &Logger{zl: zl}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// AddHook registers a hook. Not safe to call concurrently with logging,
// register hooks during startup.
func (l *Logger) AddHook(hook Hook) {
	l.hooks = append(l.hooks, hook)
}

// With returns a child logger carrying the given fields on every entry.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{zl: l.zl.With(fields...), hooks: l.hooks}
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields []Field) {
	if !l.zl.Core().Enabled(level) {
		return
	}

	for _, hook := range l.hooks {
		fields = hook.Apply(ctx, msg, fields...)
	}

	switch level {
	case zapcore.DebugLevel:
		l.zl.Debug(msg, fields...)
	case zapcore.InfoLevel:
		l.zl.Info(msg, fields...)
	case zapcore.WarnLevel:
		l.zl.Warn(msg, fields...)
	default:
		l.zl.Error(msg, fields...)
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// AsSlog exposes the logger as a *slog.Logger for libraries that speak slog.
func (l *Logger) AsSlog() *slog.Logger {
	return slog.New(&slogBridge{zl: l.zl})
}

// slogBridge adapts the zap core to the slog.Handler interface.
type slogBridge struct {
	zl    *zap.Logger
	attrs []Field
}

func (h *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	return h.zl.Core().Enabled(slogToZapLevel(level))
}

func (h *slogBridge) Handle(_ context.Context, record slog.Record) error {
	fields := make([]Field, 0, record.NumAttrs()+len(h.attrs))
	fields = append(fields, h.attrs...)

	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, zap.Any(attr.Key, attr.Value.Any()))
		return true
	})

	if checked := h.zl.Check(slogToZapLevel(record.Level), record.Message); checked != nil {
		checked.Write(fields...)
	}

	return nil
}

func (h *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make([]Field, 0, len(attrs)+len(h.attrs))
	fields = append(fields, h.attrs...)

	for _, attr := range attrs {
		fields = append(fields, zap.Any(attr.Key, attr.Value.Any()))
	}

	return &slogBridge{zl: h.zl, attrs: fields}
}

func (h *slogBridge) WithGroup(name string) slog.Handler {
	return &slogBridge{zl: h.zl.Named(name), attrs: h.attrs}
}

func slogToZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
