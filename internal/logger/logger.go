package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const jobIDKey ctxKey = "job_id"

// Options configures a Logger.
type Options struct {
	Level  string
	Format string // "text" or "json"
	Output io.Writer
}

type implLogger struct {
	zl    zerolog.Logger
	level zerolog.Level
}

// New creates a Logger writing human-readable lines to stderr.
func New(level string) Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a Logger from opts.
func NewWithOptions(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var zl zerolog.Logger
	if strings.EqualFold(opts.Format, "json") {
		zl = zerolog.New(out).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.DateTime,
		}).With().Timestamp().Logger()
	}

	lvl := parseLevel(opts.Level)
	return &implLogger{
		zl:    zl.Level(lvl),
		level: lvl,
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &implLogger{zl: zerolog.Nop(), level: zerolog.Disabled}
}

// WithJobID returns a context whose log lines carry id.
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// JobID returns the job id stored in ctx, or "".
func JobID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(jobIDKey).(string)
	return id
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *implLogger) shouldLog(level string) bool {
	target, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return true
	}
	return target >= l.level
}

func (l *implLogger) emit(ctx context.Context, ev *zerolog.Event, msg string, args []interface{}) {
	if id := JobID(ctx); id != "" {
		ev = ev.Str(string(jobIDKey), id)
	}
	ev.Msgf(msg, args...)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.emit(ctx, l.zl.Debug(), msg, args)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.emit(ctx, l.zl.Info(), msg, args)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.emit(ctx, l.zl.Warn(), msg, args)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.emit(ctx, l.zl.Error(), msg, args)
}
