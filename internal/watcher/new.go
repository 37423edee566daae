package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/session-narrator/internal/logger"
)

// DefaultDebounce lets an editor or recorder finish writing before a run starts.
const DefaultDebounce = 500 * time.Millisecond

// New watches the directories holding paths and calls handler when one of the
// paths is written, created or renamed into place. Bursts of events inside
// debounce collapse into one call, and calls never overlap.
func New(paths []string, handler EventHandler, log logger.Logger, debounce time.Duration) (Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("add watch path: %w", err)
		}
		dirs[dir] = true
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &implWatcher{
		targets:   targets,
		dirs:      len(dirs),
		handler:   handler,
		logger:    log,
		watcher:   watcher,
		debounce:  debounce,
		semaphore: make(chan struct{}, 1),
	}, nil
}
