package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is an interface for logging
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Sync() error
}

// ZapLogger is a concrete implementation using zap's sugared logger.
// Args are alternating key/value pairs.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// NewLogger creates a new logger instance. production selects the JSON
// encoder; level falls back to info (production) or debug.
func NewLogger(env, level string) Logger {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	if lvl, err := zapcore.ParseLevel(strings.ToLower(level)); err == nil && level != "" {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	z, err := cfg.Build()
	if err != nil {
		z = zap.NewExample()
	}

	return New(z)
}

// New wraps an existing zap logger.
func New(z *zap.Logger) Logger {
	return &ZapLogger{logger: z.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return New(zap.NewNop())
}

func (l *ZapLogger) Info(msg string, args ...any) {
	l.logger.Infow(msg, args...)
}

func (l *ZapLogger) Error(msg string, args ...any) {
	l.logger.Errorw(msg, args...)
}

func (l *ZapLogger) Debug(msg string, args ...any) {
	l.logger.Debugw(msg, args...)
}

func (l *ZapLogger) Warn(msg string, args ...any) {
	l.logger.Warnw(msg, args...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
