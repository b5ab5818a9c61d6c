// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tlahitte/karamove-texture-drawing/scan"
)

// autoRefresh is the running auto-refresh task: a timer firing every
// period and, when enabled, a watcher on the watch folder that starts
// a pass early once new files have settled.
type autoRefresh struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startAuto (re)starts the auto-refresh task with the current watch
// settings. The controller must be locked.
func (c *Controller) startAuto() {
	c.stopAuto()
	wc := c.st.Watch
	if !wc.AutoRefresh || wc.Path == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	ar := &autoRefresh{cancel: cancel, done: make(chan struct{})}
	c.auto = ar

	var watcher *fsnotify.Watcher
	if c.cfg.WatchEvents {
		w, err := fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(wc.Path)
		}
		if err != nil {
			c.log.Debug("watch folder events unavailable, using the timer only", "path", wc.Path, "err", err)
			if w != nil {
				w.Close()
			}
		} else {
			watcher = w
		}
	}
	c.log.Info("auto-refresh started", "interval", wc.Period(), "events", watcher != nil)
	go c.runAuto(ctx, ar.done, wc.Period(), watcher)
}

// stopAuto stops the auto-refresh task if it is running and waits for it
// to exit; a pending timer never fires after it returns. The controller
// must be locked, which keeps the task from starting a pass meanwhile.
func (c *Controller) stopAuto() {
	ar := c.auto
	if ar == nil {
		return
	}
	c.auto = nil
	ar.cancel()
	<-ar.done
	c.log.Info("auto-refresh stopped")
}

func (c *Controller) runAuto(ctx context.Context, done chan struct{}, period time.Duration, watcher *fsnotify.Watcher) {
	defer close(done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var errs chan error
	if watcher != nil {
		defer watcher.Close()
		events = watcher.Events
		errs = watcher.Errors
	}
	settle := time.Duration(c.cfg.Settle) + 50*time.Millisecond
	debounce := time.NewTimer(settle)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx, "timer")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if c.triggers(ev) {
				debounce.Reset(settle)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.log.Debug("watch folder event error", "err", err)
		case <-debounce.C:
			c.tick(ctx, "event")
		}
	}
}

// triggers returns whether a watch folder event may bring a new drawing.
func (c *Controller) triggers(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(ev.Name)
	if name == "" || name[0] == '.' || name[0] == '~' {
		return false
	}
	return c.scanner.Classify(name) == scan.Unprocessed && c.cfg.AllowsExt(name)
}
