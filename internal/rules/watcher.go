package rules

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called after every reload attempt. err is nil when the new
// snapshot was installed; otherwise the previous snapshot is still live.
type ReloadFunc func(snapshot *Snapshot, err error)

// WatcherConfig configures the rules directory watcher
type WatcherConfig struct {
	// Dir is the rules directory to watch
	Dir string

	// DebounceDelay is how long to wait for more changes before reloading
	DebounceDelay time.Duration

	// OnReload is notified of each reload attempt (optional)
	OnReload ReloadFunc

	// Logger for logging events
	Logger *slog.Logger
}

// Watcher reloads the store whenever a rule file under Dir changes
type Watcher struct {
	config  WatcherConfig
	loader  *Loader
	store   *Store
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu       sync.Mutex
	pending  bool
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// NewWatcher creates a watcher for the given loader and store
func NewWatcher(config WatcherConfig, loader *Loader, store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 250 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		loader:  loader,
		store:   store,
		watcher: fsw,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. Processing stops when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.config.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.config.Dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch rules directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Rules watcher started",
		"dir", w.config.Dir,
		"debounce", w.config.DebounceDelay)
	return nil
}

// Stop stops the watcher. It is safe to call more than once and from
// several goroutines.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
		w.stopErr = w.watcher.Close()
	})
	return w.stopErr
}

// processEvents reloads once the directory has been quiet for DebounceDelay.
// Every relevant event pushes the reload back, so a multi-file update is
// picked up as a whole.
func (w *Watcher) processEvents(ctx context.Context) {
	// idle until the first rule file event
	quiet := time.NewTimer(w.config.DebounceDelay)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleFSEvent(event) {
				quiet.Reset(w.config.DebounceDelay)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Rules watcher error", "error", err)

		case <-quiet.C:
			w.flush()
		}
	}
}

// handleFSEvent records a rule file change and reports whether it did
func (w *Watcher) handleFSEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == event.Op {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		// new subdirectories must be watched too
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err == nil {
				w.logger.Debug("Watching new directory", "path", event.Name)
			}
			return false
		}
	}
	if !IsRuleFile(event.Name) {
		return false
	}

	w.mu.Lock()
	w.pending = true
	w.mu.Unlock()
	w.logger.Debug("Rule file changed", "path", event.Name, "op", event.Op.String())
	return true
}

// flush reloads if anything changed since the last reload
func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = false
	w.mu.Unlock()

	if pending {
		w.Reload()
	}
}

// Reload loads the directory and installs the result. It is also used for
// explicit reload requests (for example SIGHUP).
func (w *Watcher) Reload() error {
	editions, err := w.loader.LoadDir(w.config.Dir)
	if err == nil {
		err = w.store.Reload(editions)
	}

	if err != nil {
		w.logger.Error("Rule reload rejected, keeping previous snapshot", "dir", w.config.Dir, "error", err)
	} else {
		w.logger.Info("Rules reloaded", "dir", w.config.Dir, "editions", w.store.Snapshot().Len())
	}
	if w.config.OnReload != nil {
		w.config.OnReload(w.store.Snapshot(), err)
	}
	return err
}
