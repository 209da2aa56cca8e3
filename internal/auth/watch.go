package auth

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const tokenDebounce = 100 * time.Millisecond

// TokenWatcher reloads a token file into Credentials whenever it changes.
//
// The parent directory is watched rather than the file, so replacements by
// rename (as done by secret mounts and most editors) are picked up too.
type TokenWatcher struct {
	path     string
	creds    *Credentials
	onChange func()
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewTokenWatcher starts watching path. onChange is called after the
// credentials picked up a different token.
func NewTokenWatcher(path string, creds *Credentials, onChange func(), logger *slog.Logger) (*TokenWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &TokenWatcher{
		path:     path,
		creds:    creds,
		onChange: onChange,
		logger:   logger,
		watcher:  watcher,
	}, nil
}

// Run processes filesystem events until ctx is cancelled, then closes the watcher.
func (w *TokenWatcher) Run(ctx context.Context) error {
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("token watcher error", "error", err)
		}
	}
}

func (w *TokenWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	// Writers often truncate then write; reload once the file settles.
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(tokenDebounce, w.reload)
	w.mu.Unlock()
}

func (w *TokenWatcher) reload() {
	token, err := LoadToken(w.path)
	if err != nil {
		w.logger.Warn("token reload failed, keeping current token", "path", w.path, "error", err)
		return
	}

	if !w.creds.SetToken(token) {
		return
	}

	w.logger.Info("bearer token rotated", "path", w.path)
	if w.onChange != nil {
		w.onChange()
	}
}

func (w *TokenWatcher) close() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	_ = w.watcher.Close()
}
