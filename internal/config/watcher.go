package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zeusync/remedy/internal/core/observability/log"
)

const DefaultDebounce = 250 * time.Millisecond

// ApplyFunc receives every successfully reloaded config.
type ApplyFunc func(Config) error

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

func WithWatcherLogger(l log.Log) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// Watcher reloads a config file when it changes on disk. The parent
// directory is watched so editors that save by rename are picked up.
// A file that fails to load or apply is logged and the previous config
// stays in effect.
type Watcher struct {
	path     string
	apply    ApplyFunc
	debounce time.Duration
	fs       *fsnotify.Watcher
	logger   log.Log
}

func NewWatcher(path string, apply ApplyFunc, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err = fs.Add(filepath.Dir(abs)); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		apply:    apply,
		debounce: DefaultDebounce,
		fs:       fs,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("config")
	return w, nil
}

// Run blocks until ctx is done and closes the underlying fs watcher on
// return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fs.Close(); err != nil {
			w.logger.Warn("close fs watcher", log.Error(err))
		}
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fs watcher error", log.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected, keeping previous", log.Error(err))
		return
	}
	if err = w.apply(cfg); err != nil {
		w.logger.Warn("config reload not applied", log.Error(err))
		return
	}
	w.logger.Info("config reloaded", log.String("path", w.path))
}
