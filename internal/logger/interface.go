package logger

import "context"

// Logger is the printf-style logger shared by all packages.
// The context carries the job id, if any, which is attached to every line.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...interface{})
	Info(ctx context.Context, msg string, args ...interface{})
	Warn(ctx context.Context, msg string, args ...interface{})
	Error(ctx context.Context, msg string, args ...interface{})
}
