// Package logger wraps zap with the small leveled-logging facade used
// throughout this repo: Info/Warn/Error/Fatal/With taking alternating
// key-value pairs, plus a Zap() escape hatch for libraries that want a
// raw *zap.Logger (pkg/tracing's InitTracer).
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the application-wide logging facade.
type Logger struct {
	z *zap.Logger
}

// New builds a Logger. level is one of debug/info/warn/error; env
// selects JSON encoding for anything other than "development".
func New(level, env string) *Logger {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Zap returns the underlying *zap.Logger.
func (l *Logger) Zap() *zap.Logger { return l.z }

func fields(kv []interface{}) []zap.Field {
	fs := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fs = append(fs, zap.Any(key, kv[i+1]))
	}
	return fs
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.z.Debug(msg, fields(kv)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.z.Info(msg, fields(kv)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.z.Warn(msg, fields(kv)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.z.Error(msg, fields(kv)...) }

// Fatal logs at error level then exits 2 (runtime failure, spec §6 CLI
// exit codes), rather than zap's own os.Exit(1) via Fatal.
func (l *Logger) Fatal(msg string, kv ...interface{}) {
	l.z.Error(msg, fields(kv)...)
	_ = l.z.Sync()
	os.Exit(2)
}

// With returns a child Logger with the given key-values attached to
// every subsequent entry.
func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{z: l.z.With(fields(kv)...)}
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }
