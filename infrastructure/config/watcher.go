package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"ideamap/domain/layout"
)

// RulesWatcher serves layout sizing rules from a YAML file and reloads them
// when the file changes. An invalid file is logged and the current rules are
// kept.
type RulesWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  layout.SizingRules
	mu       sync.RWMutex
	onChange []func(layout.SizingRules)
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	debounce time.Duration
}

// NewRulesWatcher loads the rules file and prepares a watcher for it
func NewRulesWatcher(path string, logger *zap.Logger) (*RulesWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rules, err := LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial rules: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (rename over the file) are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch rules directory: %w", err)
	}

	return &RulesWatcher{
		path:     path,
		watcher:  watcher,
		current:  rules,
		logger:   logger,
		stopCh:   make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Rules returns the current sizing rules
func (w *RulesWatcher) Rules() layout.SizingRules {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
// Register callbacks before Start.
func (w *RulesWatcher) OnChange(fn func(layout.SizingRules)) {
	w.onChange = append(w.onChange, fn)
}

// Start begins watching for changes
func (w *RulesWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Layout rules watcher started", zap.String("path", w.path))
}

// Stop stops watching; it is safe to call more than once
func (w *RulesWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Layout rules watcher stopped")
	})
}

func (w *RulesWatcher) watchLoop() {
	var debounceTimer *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// reload re-reads the file and swaps the rules in when they are valid
func (w *RulesWatcher) reload() {
	rules, err := LoadRules(w.path)
	if err != nil {
		w.logger.Error("Invalid layout rules, keeping current", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = rules
	w.mu.Unlock()

	for _, fn := range w.onChange {
		fn(rules)
	}
	w.logger.Info("Layout rules reloaded", zap.String("path", w.path))
}
