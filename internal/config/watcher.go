// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileDebounce is the default duration we wait for the contents to have
// stabilised to work around some editors writing an empty file and then the
// buffer.
const FileDebounce = 10 * time.Millisecond

// Change is a semantically meaningful change to the configuration file
// identified by Watch.
type Change struct {
	Event  []fsnotify.Event
	Config *Config
	Sum    Sum
	Err    error
}

// Op returns an aggregated fsnotify.Op for all elements of the receivers'
// Event field.
func (c Change) Op() fsnotify.Op {
	var op fsnotify.Op
	for _, o := range c.Event {
		op |= o.Op
	}
	return op
}

// Watch watches the configuration file at path, sending changes on the
// changes channel until ctx is cancelled. Changes that do not alter the
// semantic hash of the configuration, starting from initial, are not
// sent. Removal of the file is sent as a change to the default
// configuration. The debounce parameter specifies how long to wait after
// an fsnotify.Event before reading the file to ensure that writes will be
// reflected in the state checksum. If it is less than zero, FileDebounce
// is used.
//
// The directory holding path must exist.
func Watch(ctx context.Context, path string, initial Sum, changes chan<- Change, debounce time.Duration, log *slog.Logger) error {
	if debounce < 0 {
		debounce = FileDebounce
	}
	log = log.With(slog.String("component", "config"))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Watch the directory so that editors replacing
	// the file by rename are followed.
	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		return err
	}

	last := initial
	send := func(c Change) bool {
		log.LogAttrs(ctx, slog.LevelDebug, "config change", slog.Any("change", changeValue{c}))
		select {
		case <-ctx.Done():
			return false
		case changes <- c:
			return true
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
				log.LogAttrs(ctx, slog.LevelDebug, "write", slog.String("name", ev.Name), slog.String("op", ev.Op.String()))
				time.Sleep(debounce)
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				log.LogAttrs(ctx, slog.LevelDebug, "remove", slog.String("name", ev.Name), slog.String("op", ev.Op.String()))
			default:
				continue
			}
			cfg, sum, err := Load(path)
			if cfg == nil {
				log.LogAttrs(ctx, slog.LevelError, "read config", slog.Any("error", err))
				if !send(Change{Event: []fsnotify.Event{ev}, Err: err}) {
					return nil
				}
				continue
			}
			if sum == last && err == nil {
				log.LogAttrs(ctx, slog.LevelDebug, "no change", slog.Any("sum", sumValue{sum}))
				continue
			}
			last = sum
			if !send(Change{Event: []fsnotify.Event{ev}, Config: cfg, Sum: sum, Err: err}) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if !send(Change{Err: err}) {
				return nil
			}
		}
	}
}
