package synonym

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/casewise/internal/logging"
)

// Watcher rebuilds the table when a source file changes and swaps it into
// the holder. A failed rebuild leaves the previous table in place.
type Watcher struct {
	holder   *Holder
	sources  []string
	logger   logging.Logger
	debounce time.Duration

	mu       sync.Mutex
	onReload func(generation uint64, err error)
}

// NewWatcher creates a watcher for the given sources
func NewWatcher(holder *Holder, sources []string, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	abs := make([]string, 0, len(sources))
	for _, s := range sources {
		if p, err := filepath.Abs(s); err == nil {
			abs = append(abs, p)
		} else {
			abs = append(abs, s)
		}
	}
	return &Watcher{
		holder:   holder,
		sources:  abs,
		logger:   logger.Named("synonyms"),
		debounce: 100 * time.Millisecond,
	}
}

// OnReload registers a callback invoked after every reload attempt
func (w *Watcher) OnReload(fn func(generation uint64, err error)) {
	w.mu.Lock()
	w.onReload = fn
	w.mu.Unlock()
}

// Reload rebuilds the table from the sources and swaps it in
func (w *Watcher) Reload() (uint64, error) {
	t, err := Build(w.sources)
	if err != nil {
		w.logger.Warn("synonym reload failed, keeping previous table", logging.Err(err))
		return w.holder.Generation(), err
	}
	gen := w.holder.Store(t)
	w.logger.Info("synonym table reloaded",
		logging.Int("entries", t.Len()),
		logging.Int("generation", int(gen)),
	)
	return gen, nil
}

// Run watches the source directories until ctx is done. Directories are
// watched instead of files so editors that replace files by rename are seen.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.sources) == 0 {
		<-ctx.Done()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	watched := make(map[string]bool)
	for _, s := range w.sources {
		dir := filepath.Dir(s)
		if watched[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("synonym source changed",
				logging.String("file", event.Name),
				logging.String("op", event.Op.String()),
			)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			gen, err := w.Reload()
			w.mu.Lock()
			fn := w.onReload
			w.mu.Unlock()
			if fn != nil {
				fn(gen, err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Err(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, s := range w.sources {
		if name == s {
			return true
		}
	}
	return false
}
