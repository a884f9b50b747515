// Package logger wraps zerolog with the constructors used across the service.
//
// The Logger type embeds zerolog.Logger so Debug, Info, Warn, Error and the rest
// are available directly. Request handlers get a child logger via FromContext.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// Config holds logger configuration.
type Config struct {
	Writer io.Writer
	Level  string // debug, info, warn, error
	Format string // json or console
	Role   string
}

// New constructs a logger writing to cfg.Writer (stdout by default).
// Unknown levels fall back to info.
func New(cfg Config) *Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Role != "" {
		ctx = ctx.Str("role", cfg.Role)
	}

	return &Logger{ctx.Logger()}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// With returns a child logger carrying an extra string field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{l.Logger.With().Str(key, value).Logger()}
}

// WithContext stores the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or a disabled logger when none is set.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*zerolog.Ctx(ctx)}
}

// TaskLogger adapts Logger to the key/value Info and Error methods the task queue expects.
type TaskLogger struct {
	l *Logger
}

// NewTaskLogger creates a TaskLogger.
func NewTaskLogger(l *Logger) *TaskLogger {
	return &TaskLogger{l: l}
}

func (t *TaskLogger) Info(message string, params ...any) {
	t.l.Info().Fields(params).Msg(message)
}

func (t *TaskLogger) Error(message string, params ...any) {
	t.l.Error().Fields(params).Msg(message)
}
