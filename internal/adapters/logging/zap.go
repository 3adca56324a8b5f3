package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cinepos/concession-service/internal/domain/ports"
)

// ZapLogger implements ports.Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

// NewLogger builds a production or development zap logger at the given level.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// Named returns a logger scoped with the given name.
func (l *ZapLogger) Named(name string) *ZapLogger {
	return &ZapLogger{logger: l.logger.Named(name)}
}

func (l *ZapLogger) Info(msg string, fields ...ports.Field) {
	l.logger.Info(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...ports.Field) {
	l.logger.Error(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...ports.Field) {
	l.logger.Warn(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Debug(msg string, fields ...ports.Field) {
	l.logger.Debug(msg, toZapFields(fields)...)
}

func toZapFields(fields []ports.Field) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			zf = append(zf, zap.Error(err))
			continue
		}
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	return zf
}
