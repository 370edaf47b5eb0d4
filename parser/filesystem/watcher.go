package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reglet-dev/reglet-langfeatures/parser"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reloading. Editors often emit several events per save.
const DefaultDebounce = 50 * time.Millisecond

// ReloadFunc receives the full manifest set of a watched directory after it
// changed, or the error that stopped the reload.
type ReloadFunc func(manifests []*parser.Manifest, err error)

// Watcher reloads a manifest directory whenever one of its manifest files is
// written, created, removed or renamed.
type Watcher struct {
	repo     *ManifestRepository
	debounce time.Duration
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce. Non-positive values are ignored.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger used for watch errors.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a Watcher that loads manifests through repo.
func NewWatcher(repo *ManifestRepository, opts ...WatcherOption) *Watcher {
	if repo == nil {
		repo = NewManifestRepository()
	}
	w := &Watcher{
		repo:     repo,
		debounce: DefaultDebounce,
		logger:   repo.logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is done, calling onReload after every settled burst
// of manifest changes in dir. Subdirectories are not watched. Watch returns
// nil when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir string, onReload ReloadFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("manifest changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			manifests, err := w.repo.List(ctx, dir)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				w.logger.Warn("manifest reload failed", "dir", dir, "error", err)
			}
			onReload(manifests, err)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("manifest watcher error", "dir", dir, "error", err)
		}
	}
}

// relevant reports whether event touches a manifest file. Chmod-only events
// are ignored.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, err := parser.FormatForFile(filepath.Base(event.Name))
	return err == nil
}
