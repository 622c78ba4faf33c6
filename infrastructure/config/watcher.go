package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// ConfigWatcher reloads the YAML config file when it changes on disk.
// Hot reloading only runs in development and only when a file was loaded.
type ConfigWatcher struct {
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
	debounce  time.Duration
}

// NewConfigWatcher creates a watcher for initial.ConfigFile
func NewConfigWatcher(initial *Config, logger *zap.Logger) (*ConfigWatcher, error) {
	return newConfigWatcher(initial, logger, debounceDelay)
}

func newConfigWatcher(initial *Config, logger *zap.Logger, debounce time.Duration) (*ConfigWatcher, error) {
	w := &ConfigWatcher{
		config:   initial,
		logger:   logger,
		stopCh:   make(chan struct{}),
		debounce: debounce,
	}

	if !initial.IsDevelopment() || initial.ConfigFile == "" {
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", initial.Environment),
			zap.String("config_file", initial.ConfigFile),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	if err := fsWatcher.Add(filepath.Dir(initial.ConfigFile)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}
	w.watcher = fsWatcher
	go w.watchLoop(filepath.Clean(initial.ConfigFile))

	logger.Info("Configuration hot reloading enabled",
		zap.String("config_file", initial.ConfigFile),
	)
	return w, nil
}

func (w *ConfigWatcher) watchLoop(target string) {
	defer w.watcher.Close()

	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reloadConfig)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

func (w *ConfigWatcher) reloadConfig() {
	newConfig, err := LoadConfigFile(w.GetConfig().ConfigFile)
	if err != nil {
		w.logger.Error("Invalid configuration after reload, keeping the previous one", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.config
	w.config = newConfig
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logChanges(old, newConfig)

	for i, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Callback panicked",
						zap.Int("callback_index", i),
						zap.Any("panic", r),
					)
				}
			}()
			cb(newConfig)
		}()
	}
}

func (w *ConfigWatcher) logChanges(old, next *Config) {
	oldDomain, nextDomain := old.DomainConfig(), next.DomainConfig()
	var changes []string
	if oldDomain.StrictInvariants != nextDomain.StrictInvariants {
		changes = append(changes, fmt.Sprintf("strict_invariants: %v -> %v", oldDomain.StrictInvariants, nextDomain.StrictInvariants))
	}
	if old.LogLevel != next.LogLevel {
		changes = append(changes, fmt.Sprintf("log_level: %s -> %s", old.LogLevel, next.LogLevel))
	}
	if old.StorageBackend != next.StorageBackend {
		changes = append(changes, "storage_backend (restart required)")
	}
	if len(changes) > 0 {
		w.logger.Info("Configuration changes detected", zap.Strings("changes", changes))
	}
}

// OnChange registers a callback run after every successful reload
func (w *ConfigWatcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// GetConfig returns the current configuration
func (w *ConfigWatcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops the watcher; it is safe to call more than once
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}
