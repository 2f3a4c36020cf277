package linestat

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher triggers a callback when files in the watched directories change.
type Watcher struct {
	fs   *fsnotify.Watcher
	dirs []string
}

// NewWatcher watches every existing directory in dirs. Missing directories are skipped.
func NewWatcher(dirs []string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{fs: fs}

	for _, dir := range dirs {
		if !isDir(dir) {
			continue
		}

		if err := fs.Add(dir); err != nil {
			fs.Close()

			return nil, fmt.Errorf("watching %q: %w", dir, err)
		}

		w.dirs = append(w.dirs, dir)
	}

	return w, nil
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Run calls onChange once per burst of events, after debounce has passed
// without further events. It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}

			if ev.Op == fsnotify.Chmod {
				continue
			}

			timer.Reset(debounce)
		case _, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			// Queue overflows and similar errors only mean a missed event.
			timer.Reset(debounce)
		case <-timer.C:
			onChange()
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
