// Package watcher observes the persisted token file so that a refresh or
// logout performed by another UniCrew process on the same machine is picked
// up without restarting.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// reloadDebounce lets an atomic replace (write + rename) settle before the
// change callback fires, so half-written files are never read.
const reloadDebounce = 150 * time.Millisecond

// TokenWatcher watches one token file and invokes a callback after changes.
type TokenWatcher struct {
	path     string
	onChange func()

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	timer   *time.Timer
	cancel  context.CancelFunc
	started bool
}

// New creates a watcher for the token file at path. onChange runs debounced
// on every write, create or removal of the file.
func New(path string, onChange func()) *TokenWatcher {
	return &TokenWatcher{path: path, onChange: onChange}
}

// Start begins watching. The parent directory is watched rather than the
// file itself because stores replace the file atomically via rename.
func (w *TokenWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("token watcher: %w", err)
	}
	if err = fs.Add(filepath.Dir(w.path)); err != nil {
		_ = fs.Close()
		return fmt.Errorf("token watcher: watch %s: %w", filepath.Dir(w.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fs = fs
	w.cancel = cancel
	w.started = true
	go w.loop(ctx)
	return nil
}

// Stop ends watching. Idempotent.
func (w *TokenWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	_ = w.fs.Close()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.started = false
}

func (w *TokenWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Debugf("token watcher: %v", err)
		}
	}
}

func (w *TokenWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, func() {
		log.Debug("token watcher: token file changed externally")
		w.onChange()
	})
}
