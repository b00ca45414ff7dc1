// Package credwatch watches the auth-token file and pushes refreshed
// credentials into the session multiplexer. Changes are debounced because
// editors and secret managers rewrite files in several quick operations.
package credwatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/devpane/workbench/internal/log"
)

// Watcher monitors a credential file for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	tokenPath string
	debounce  time.Duration
	onToken   func(token string)
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// TokenPath is the file holding the auth token.
	TokenPath string

	// DebounceDur coalesces bursts of writes into one reload.
	DebounceDur time.Duration

	// OnToken receives the trimmed token after each reload.
	OnToken func(token string)
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(tokenPath string, onToken func(string)) Config {
	return Config{
		TokenPath:   tokenPath,
		DebounceDur: 1 * time.Second,
		OnToken:     onToken,
	}
}

// ReadToken reads and trims the credential file.
func ReadToken(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's configured token file
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// New creates a credential watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.OnToken == nil {
		return nil, fmt.Errorf("credwatch: OnToken callback is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		tokenPath: cfg.TokenPath,
		debounce:  cfg.DebounceDur,
		onToken:   cfg.OnToken,
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directory containing the token file. Watching
// the directory rather than the file survives atomic rename-over-write.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.tokenPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()

	log.Info(log.CatWatch, "credential watcher started", "path", w.tokenPath)
	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				w.reload()
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatch, "watcher error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// reload re-reads the token file and hands the result to the callback. A
// read failure keeps the previous token in place.
func (w *Watcher) reload() {
	token, err := ReadToken(w.tokenPath)
	if err != nil {
		log.ErrorErr(log.CatWatch, "reload credential", err, "path", w.tokenPath)
		return
	}
	log.Info(log.CatWatch, "credential reloaded", "path", w.tokenPath)
	w.onToken(token)
}

// isRelevantEvent checks if the event should trigger a reload.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	// Writes, creates, and renames all occur during atomic replacement.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.tokenPath)
}
