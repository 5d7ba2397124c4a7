// Package watch feeds recordings dropped into a directory to a handler.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/satriahrh/callqa/internal/audio"
)

const defaultSettle = 2 * time.Second

// Handler is called with the path of each audio file once it stops changing
type Handler func(ctx context.Context, path string)

// Watcher monitors a directory for new audio files
type Watcher struct {
	dir    string
	handle Handler
	settle time.Duration
	logger *zap.Logger
}

// New creates a watcher for dir. settle is how long a file must go without
// writes before it is handed over; zero means two seconds.
func New(dir string, settle time.Duration, handle Handler, logger *zap.Logger) *Watcher {
	if settle <= 0 {
		settle = defaultSettle
	}
	return &Watcher{dir: dir, handle: handle, settle: settle, logger: logger}
}

// Backfill hands over audio files already present, in name order
func (w *Watcher) Backfill(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && audio.IsAudioFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return nil
		}
		w.handle(ctx, filepath.Join(w.dir, name))
	}
	return nil
}

// Run watches until ctx is done. Files still being written are held back
// until no write has been seen for the settle period.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("Watching for recordings", zap.String("dir", w.dir), zap.Duration("settle", w.settle))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !audio.IsAudioFile(evt.Name) {
				continue
			}
			switch {
			case evt.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[evt.Name] = time.Now()
			case evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, evt.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		case now := <-ticker.C:
			for _, path := range w.ready(pending, now) {
				w.handle(ctx, path)
			}
		}
	}
}

// ready removes and returns the pending files that have settled
func (w *Watcher) ready(pending map[string]time.Time, now time.Time) []string {
	var paths []string
	for path, last := range pending {
		if now.Sub(last) >= w.settle {
			paths = append(paths, path)
			delete(pending, path)
		}
	}
	sort.Strings(paths)
	return paths
}
