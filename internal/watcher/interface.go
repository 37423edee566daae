package watcher

import "context"

// Watcher re-runs a handler when any of a fixed set of files changes.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler receives the watched files that changed since the last run.
type EventHandler func(ctx context.Context, changed []string) error
