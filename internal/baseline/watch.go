package baseline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/roadmap/internal/models"
)

// DebounceInterval groups bursts of editor writes into one reload.
const DebounceInterval = 200 * time.Millisecond

// ReloadCallback receives the freshly seeded baseline.
type ReloadCallback func(nodes []models.Node)

// Watch watches the baseline file at path and calls cb with the re-seeded
// nodes after each change, until ctx is cancelled. The parent directory is
// watched so editors that replace the file by rename are picked up. A file
// that fails to parse is logged and the previous baseline stays in effect.
func Watch(ctx context.Context, path string, newID func() string, logger *slog.Logger, cb ReloadCallback) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("baseline watcher: started", slog.String("path", abs))

	var (
		debounce   *time.Timer
		debounceCh <-chan time.Time
	)
	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(DebounceInterval)
			debounceCh = debounce.C
		} else {
			debounce.Reset(DebounceInterval)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("baseline watcher: stopped")
			return nil

		case <-debounceCh:
			nodes, err := LoadNodes(abs, newID)
			if err != nil {
				logger.Warn("baseline watcher: reload failed, keeping previous baseline",
					slog.String("path", abs),
					slog.String("error", err.Error()))
				continue
			}
			logger.Info("baseline watcher: reloaded", slog.Int("nodes", len(nodes)))
			if cb != nil {
				cb(nodes)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("baseline watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
