package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
	"github.com/imagereader/imagereader-mcp/infrastructure/logging"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a configuration file when it changes and publishes
// valid results to a Live. Invalid edits are logged and ignored.
type Watcher struct {
	path     string
	loader   *Loader
	live     *Live
	debounce time.Duration
	onReload func(*domainconfig.ServerConfig)

	mu    sync.Mutex
	timer *time.Timer
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReloadHook is called after each successful reload.
func WithReloadHook(fn func(*domainconfig.ServerConfig)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, loader *Loader, live *Live, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		loader:   loader,
		live:     live,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. The parent directory is watched so that
// editors which replace the file atomically are handled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	logging.Info().
		Add(logging.Component("config")).
		Add(logging.Path(w.path)).
		Msg("watching configuration")

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn().
				Add(logging.Component("config")).
				Add(logging.ErrorField(err)).
				Msg("watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { _ = w.Reload() })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Reload loads the file once and publishes it if valid.
func (w *Watcher) Reload() error {
	cfg, err := w.loader.LoadFile(w.path)
	if err != nil {
		logging.Warn().
			Add(logging.Component("config")).
			Add(logging.Path(w.path)).
			Add(logging.ErrorField(err)).
			Msg("configuration reload rejected")
		return err
	}

	w.live.Store(cfg)
	logging.Info().
		Add(logging.Component("config")).
		Add(logging.Path(w.path)).
		Add(logging.Bytes("max_bytes", cfg.Compaction.MaxBytes)).
		Msg("configuration reloaded")

	if w.onReload != nil {
		w.onReload(cfg)
	}
	return nil
}
