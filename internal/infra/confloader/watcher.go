package confloader

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before a change is
// reported.
const DefaultSettle = 100 * time.Millisecond

// Watcher reports changes to one file. It watches the parent directory so
// that editors which save by rename are still seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	settle   time.Duration
	onChange func(path string)
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.settle = d
	}
}

// NewWatcher starts watching path. onChange runs on the Run goroutine
// after each settled burst of writes, creates or renames onto path.
func NewWatcher(path string, onChange func(path string), opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       fsw,
		path:     filepath.Clean(path),
		settle:   DefaultSettle,
		onChange: onChange,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers changes until ctx is done, then releases the watch.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	w.logger.Debug("watching configuration file", "path", w.path)

	// A nil channel blocks, so no timer means nothing pending.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(w.settle)
		case <-pending:
			pending = nil
			w.logger.Debug("configuration file changed", "path", w.path)
			w.onChange(w.path)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("configuration watcher error", "error", err)
		}
	}
}
