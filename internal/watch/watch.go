// Package watch resynchronizes the document when collection files change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
)

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 500 * time.Millisecond

// Handler is invoked once per burst of changes to a collection file.
type Handler func(ctx context.Context, kind content.Kind) error

// Watcher monitors the data directory for changes to collection files.
type Watcher struct {
	dir      string
	debounce time.Duration
	handler  Handler
	logger   *slog.Logger
	skip     func(content.Kind) bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSkip drops a settled burst when skip reports true for its kind, such
// as a file whose contents this process just wrote and already synced.
func WithSkip(skip func(content.Kind) bool) Option {
	return func(w *Watcher) { w.skip = skip }
}

// New returns a watcher of dir. Handler calls are serialized.
func New(dir string, debounce time.Duration, handler Handler, logger *slog.Logger, opts ...Option) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{dir: dir, debounce: debounce, handler: handler, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// KindForPath returns the collection stored at path, if any. Id sidecars and
// temporary files are not collections.
func KindForPath(path string) (content.Kind, bool) {
	base := filepath.Base(path)
	name, ok := strings.CutSuffix(base, ".json")
	if !ok || strings.HasPrefix(base, ".") {
		return "", false
	}
	k, err := content.ParseKind(name)
	if err != nil || string(k) != name {
		return "", false
	}
	return k, true
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(cerr))
		}
	}()

	// Watch the directory; atomic replacement renames over the files.
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch data directory %s: %w", w.dir, err)
	}
	w.logger.Info("Watching collection files", logfields.Path(w.dir))

	fire := make(chan content.Kind)
	timers := make(map[content.Kind]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			kind, ok := KindForPath(event.Name)
			if !ok {
				continue
			}
			w.logger.Debug("Collection file changed", logfields.Kind(string(kind)), logfields.Path(event.Name))
			if t, exists := timers[kind]; exists {
				t.Stop()
			}
			timers[kind] = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- kind:
				case <-ctx.Done():
				}
			})

		case kind := <-fire:
			delete(timers, kind)
			if w.skip != nil && w.skip(kind) {
				w.logger.Debug("Skipping change written by this process", logfields.Kind(string(kind)))
				continue
			}
			if err := w.handler(ctx, kind); err != nil {
				w.logger.Error("Resync after file change failed", logfields.Kind(string(kind)), logfields.Error(err))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}
