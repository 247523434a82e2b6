package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher reloads a Provider whenever its settings file changes on disk.
// The parent directory is watched so editors that replace the file on save
// are still picked up.
type Watcher struct {
	watcher  *fsnotify.Watcher
	provider *Provider
	target   string
	debounce time.Duration

	// onReload runs after every reload attempt; used by tests.
	onReload func(error)

	timerMu sync.Mutex
	timer   *time.Timer

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewWatcher(provider *Provider) (*Watcher, error) {
	if provider.Path() == "" {
		return nil, fmt.Errorf("settings provider has no file to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}

	target := filepath.Clean(provider.Path())
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch settings dir: %w", err)
	}

	return &Watcher{
		watcher:  w,
		provider: provider,
		target:   target,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
	}, nil
}

func (sw *Watcher) Start() {
	go sw.eventLoop()
	slog.Info("settings watcher started", "path", sw.target)
}

// Stop closes the watcher and cancels a pending reload. Safe to call more
// than once.
func (sw *Watcher) Stop() {
	sw.stopOnce.Do(func() {
		close(sw.stopCh)
		_ = sw.watcher.Close()

		sw.timerMu.Lock()
		if sw.timer != nil {
			sw.timer.Stop()
		}
		sw.timerMu.Unlock()

		slog.Info("settings watcher stopped", "path", sw.target)
	})
}

func (sw *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handleEvent(event)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("settings watcher error", "error", err)
		case <-sw.stopCh:
			return
		}
	}
}

func (sw *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != sw.target {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	sw.timerMu.Lock()
	defer sw.timerMu.Unlock()
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounce, sw.reload)
}

func (sw *Watcher) reload() {
	select {
	case <-sw.stopCh:
		return
	default:
	}

	err := sw.provider.Reload()
	if err != nil {
		slog.Warn("settings reload failed, keeping previous settings", "path", sw.target, "error", err)
	} else {
		slog.Info("settings reloaded", "path", sw.target, "pomodoro", sw.provider.PomodoroConfig())
	}
	if sw.onReload != nil {
		sw.onReload(err)
	}
}
