package executor

import "context"

// Executor defines the interface for executing external commands
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error)
	// LookPath resolves name on PATH, or checks that an explicit path exists.
	LookPath(name string) (string, error)
}
