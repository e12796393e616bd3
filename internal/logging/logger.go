// Package logging implements contextualized logger with zap.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/bool64/ctxd"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls Logger.
type Config struct {
	// Level is a minimal level of messages: debug, info, warn or error, default info.
	Level string

	// Output receives JSON lines, default os.Stderr.
	Output io.Writer

	// Fields are added to every message.
	Fields []interface{}
}

var _ ctxd.Logger = &Logger{}

// Logger is a ctxd.Logger backed by zap.
type Logger struct {
	z         *zap.SugaredLogger
	important *zap.SugaredLogger
}

func newEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)

	return zapcore.NewJSONEncoder(cfg)
}

// New creates Logger.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel

	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}

		level = l
	}

	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	ws := zapcore.Lock(zapcore.AddSync(cfg.Output))

	importantLevel := level
	if importantLevel > zapcore.InfoLevel {
		importantLevel = zapcore.InfoLevel
	}

	return &Logger{
		z:         zap.New(zapcore.NewCore(newEncoder(), ws, level)).Sugar().With(cfg.Fields...),
		important: zap.New(zapcore.NewCore(newEncoder(), ws, importantLevel)).Sugar().With(cfg.Fields...),
	}, nil
}

func fields(ctx context.Context, keysAndValues []interface{}) []interface{} {
	ctxFields := ctxd.Fields(ctx)
	if len(ctxFields) == 0 {
		return keysAndValues
	}

	res := make([]interface{}, 0, len(ctxFields)+len(keysAndValues))
	res = append(res, ctxFields...)

	return append(res, keysAndValues...)
}

// Debug logs a message.
func (l *Logger) Debug(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.z.Debugw(msg, fields(ctx, keysAndValues)...)
}

// Info logs a message.
func (l *Logger) Info(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.z.Infow(msg, fields(ctx, keysAndValues)...)
}

// Important logs a message at info level regardless of configured minimal level.
func (l *Logger) Important(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.important.Infow(msg, fields(ctx, keysAndValues)...)
}

// Warn logs a message.
func (l *Logger) Warn(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.z.Warnw(msg, fields(ctx, keysAndValues)...)
}

// Error logs a message.
func (l *Logger) Error(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.z.Errorw(msg, fields(ctx, keysAndValues)...)
}

// Sync flushes buffered messages.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
