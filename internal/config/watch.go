// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// debounceWindow coalesces the write+rename bursts editors produce when
// saving, so a single save triggers a single reload.
const debounceWindow = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	fsw    *fsnotify.Watcher
	path   string
	done   chan struct{}
	closed chan struct{}
}

// Watch watches the default config file and invokes onChange with the
// freshly loaded config after each successful reload. Reload failures
// are reported through onError (which may be nil) and do not stop the
// watcher.
func Watch(onChange func(*Config), onError func(error)) (*Watcher, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return WatchPath(path, onChange, onError)
}

// WatchPath watches a specific config file.
//
// The parent directory is watched rather than the file itself: atomic
// saves replace the file by rename, which would otherwise detach a
// file-level watch.
func WatchPath(path string, onChange func(*Config), onError func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsw:    fsw,
		path:   path,
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go w.run(onChange, onError)
	return w, nil
}

func (w *Watcher) run(onChange func(*Config), onError func(error)) {
	defer close(w.closed)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := LoadFromPath(w.path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(cfg)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and waits for the watch goroutine to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	<-w.closed
	return err
}
