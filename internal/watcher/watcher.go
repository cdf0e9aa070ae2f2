package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cincanproject/cincan-registry/internal/feed"
	"github.com/cincanproject/cincan-registry/internal/store"
)

// DefaultDebounce is how long the watcher waits after the last event before
// re-importing.
const DefaultDebounce = 250 * time.Millisecond

// Watcher re-imports a feed file into the store when it changes.
type Watcher struct {
	store    *store.Store
	path     string
	log      *zap.Logger
	debounce time.Duration
	onReload func(feed.Result, error)

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	reloads int
	last    feed.Result
	lastErr error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger for reload results.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// OnReload registers a callback run after every import attempt.
func OnReload(fn func(feed.Result, error)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// New creates a Watcher for the feed at path.
func New(st *store.Store, path string, opts ...Option) (*Watcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("feed path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve feed path: %w", err)
	}

	w := &Watcher{
		store:    st,
		path:     abs,
		log:      zap.NewNop(),
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute feed path.
func (w *Watcher) Path() string {
	return w.path
}

// Start imports the feed once and then watches its directory. A failed
// initial import is logged, not returned, so a watcher can be started before
// the feed is first written.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	// Editors and atomic writers replace the file, so watch the directory.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fsw = fsw

	w.Reload(ctx)

	w.wg.Add(1)
	go w.run(ctx)

	w.log.Info("watching feed", zap.String("path", w.path))
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("feed event", zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.Reload(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify error", zap.Error(err))
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// Reload imports the feed now and records the outcome.
func (w *Watcher) Reload(ctx context.Context) (feed.Result, error) {
	res, err := feed.ImportFile(ctx, w.store, w.path)

	w.mu.Lock()
	w.reloads++
	w.last = res
	w.lastErr = err
	w.mu.Unlock()

	if err != nil {
		w.log.Warn("feed import failed", zap.String("path", w.path), zap.Error(err))
	} else {
		w.log.Info("feed imported",
			zap.String("path", w.path),
			zap.Int("tools", res.Tools),
			zap.Int("versions", res.Versions),
			zap.Int("metadata", res.Metadata),
		)
	}
	if w.onReload != nil {
		w.onReload(res, err)
	}
	return res, err
}

// Stats reports the number of import attempts and the last outcome.
func (w *Watcher) Stats() (int, feed.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads, w.last, w.lastErr
}

// Stop halts the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopCh:
		return nil
	default:
		close(w.stopCh)
	}

	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close fsnotify watcher: %w", err)
	}
	return nil
}
