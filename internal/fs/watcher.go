package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/fsnotify/fsnotify"

	"picpath/internal/picpath"
)

// DefaultWatchDebounce is how long the volumes must stay quiet before a
// change is reported.
const DefaultWatchDebounce = 2 * time.Second

// Watcher watches every directory under a set of volumes and reports
// debounced changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	volumes  []string
	debounce time.Duration
	logger   picpath.Logger

	mu       sync.Mutex
	watching map[string]bool
}

// NewWatcher creates a watcher over volumes. Nothing is watched until Run.
func NewWatcher(volumes []string, debounce time.Duration, logger picpath.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		watcher:  w,
		volumes:  volumes,
		debounce: debounce,
		logger:   logger,
		watching: make(map[string]bool),
	}, nil
}

// Run watches until ctx is done, calling onChange once per burst of
// filesystem events. onChange runs on the watcher goroutine, so events that
// arrive meanwhile fold into the next burst.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	for _, volume := range w.volumes {
		if err := w.addTree(volume); err != nil {
			return err
		}
	}
	w.logger.Info("watching volumes", "volumes", len(w.volumes), "directories", w.WatchCount())

	var (
		pending   bool
		lastEvent time.Time
	)
	ticker := time.NewTicker(max(w.debounce/4, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watching new directory failed", "path", event.Name, "error", err)
					}
				}
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.forget(event.Name)
			}

			w.logger.Debug("fsnotify event", "op", event.Op.String(), "path", event.Name)
			pending = true
			lastEvent = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "error", err)

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= w.debounce {
				pending = false
				onChange(ctx)
			}
		}
	}
}

// addTree watches root and every directory below it, skipping hidden ones.
func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("volume not found, not watching", "volume", root)
			return nil
		}
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil
	}

	var dirs []string
	var mu sync.Mutex
	err = fastwalk.Walk(&fastwalk.Config{}, root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if fullPath != root && strings.HasPrefix(d.Name(), ".") {
			return fastwalk.SkipDir
		}
		mu.Lock()
		dirs = append(dirs, fullPath)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, dir := range dirs {
		if w.watching[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Debug("cannot watch directory", "path", dir, "error", err)
			continue
		}
		w.watching[dir] = true
	}
	return nil
}

// forget drops path and everything below it from the watch set. fsnotify
// removes its own watch when a directory disappears.
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prefix := path + string(os.PathSeparator)
	for dir := range w.watching {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.watching, dir)
		}
	}
}

// WatchCount returns the number of watched directories.
func (w *Watcher) WatchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watching)
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
