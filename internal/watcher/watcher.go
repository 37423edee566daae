package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/session-narrator/internal/logger"
)

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

type implWatcher struct {
	targets   map[string]bool
	dirs      int
	handler   EventHandler
	logger    logger.Logger
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup
}

// Start blocks until ctx is done, dispatching debounced change sets to the handler.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Watching %d files in %d directories (debounce %s)", len(w.targets), w.dirs, w.debounce)

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for the running summary to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&relevantOps == 0 || !w.targets[filepath.Clean(event.Name)] {
				continue
			}
			w.logger.Debug(ctx, "Change detected: %s (%s)", event.Name, event.Op)
			pending[filepath.Clean(event.Name)] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			select {
			case w.semaphore <- struct{}{}:
			default:
				// previous run still going; retry after another quiet period
				timer.Reset(w.debounce)
				continue
			}

			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				defer func() { <-w.semaphore }()

				w.logger.Info(ctx, "%d watched files changed, re-running", len(changed))
				if err := w.handler(ctx, changed); err != nil {
					w.logger.Error(ctx, "Re-run failed: %v", err)
				}
			}()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher.
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}
