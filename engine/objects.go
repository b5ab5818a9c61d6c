// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/tlahitte/karamove-texture-drawing/base/errors"
	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

// AddObject registers the object with the engine and gives it the
// untextured fallback appearance. Adding an object that is already
// registered does nothing.
func (c *Controller) AddObject(id string) error {
	if id == "" {
		return report.Errorf(report.ConfigError, "add-object", "empty object identifier")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotOpen
	}
	if c.st.Bindings.Has(id) {
		if c.binder.Appearance(id) != nil {
			return nil
		}
	} else if !c.host.HasObject(id) {
		return report.Errorf(report.BindError, "add-object", "object is not in the scene").WithObject(id)
	}
	if err := c.binder.Apply(id, nil); err != nil {
		c.notify(report.Failure, err)
		return err
	}
	if c.st.Bindings.Add(id) {
		c.log.Info("object added", "object", id)
	}
	return c.save()
}

// RemoveObject unregisters the object: its appearance is removed from
// the scene and its stored texture deleted. Removing an object that is
// not registered does nothing.
func (c *Controller) RemoveObject(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotOpen
	}
	if !c.st.Bindings.Has(id) {
		return nil
	}
	c.binder.Release(id)
	c.st.Bindings.Delete(id)
	var errs []error
	if err := c.catalog.Reset(id); err != nil {
		c.notify(report.Warn, err)
		errs = append(errs, err)
	}
	c.log.Info("object removed", "object", id)
	errs = append(errs, c.save())
	return errors.Join(errs...)
}

// ResetSelected returns the selected object to its untextured fallback and
// deletes its stored texture. It does nothing if no object is selected or
// the selection is not registered.
func (c *Controller) ResetSelected(selected string) error {
	if selected == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotOpen
	}
	if !c.st.Bindings.Has(selected) {
		return nil
	}
	if err := c.reset(selected); err != nil {
		return err
	}
	return c.save()
}

// ResetAll resets every registered object to its untextured fallback.
// Objects that fail are reported and skipped.
func (c *Controller) ResetAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotOpen
	}
	var errs []error
	for _, id := range c.st.Bindings.Keys() {
		errs = append(errs, c.reset(id))
	}
	errs = append(errs, c.save())
	return errors.Join(errs...)
}

// reset clears the texture of a registered object. The scene is switched
// to the fallback before the slot is emptied: if the scene refuses, the
// object keeps both its texture and its binding.
func (c *Controller) reset(id string) error {
	if err := c.binder.Apply(id, nil); err != nil {
		c.notify(report.Failure, err)
		return err
	}
	b, _ := c.st.Bindings.Get(id)
	c.st.Bindings.Set(b.Cleared())
	if err := c.catalog.Reset(id); err != nil {
		c.notify(report.Warn, err)
		return err
	}
	c.log.Info("object reset", "object", id)
	return nil
}

// SetWatchFolder sets the folder scanned for new drawings.
// A leading ~ is expanded to the home directory and relative paths are
// made absolute. The folder need not exist yet. Clearing the folder
// while auto-refresh is on is a [report.ConfigError].
func (c *Controller) SetWatchFolder(path string) error {
	if path != "" {
		p, err := homedir.Expand(path)
		if err != nil {
			return report.New(report.ConfigError, "set-watch-folder", err).WithFile(path)
		}
		p, err = filepath.Abs(p)
		if err != nil {
			return report.New(report.IOError, "set-watch-folder", err).WithFile(path)
		}
		path = p
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotOpen
	}
	wc := c.st.Watch
	wc.Path = path
	wc.Enabled = path != ""
	if err := wc.Validate(c.cfg); err != nil {
		return err
	}
	if ok, _ := fsx.DirExists(path); path != "" && !ok {
		c.notify(report.Warn, report.New(report.IOError, "set-watch-folder", errors.New("watch folder does not exist yet")).WithFile(path))
	}
	c.st.Watch = wc
	c.log.Info("watch folder set", "path", path)
	if wc.AutoRefresh {
		c.startAuto()
	}
	return c.save()
}

// SetAutoRefresh turns periodic sync passes on or off and sets their
// interval in seconds; an interval of 0 keeps the current one.
// An interval outside the configured bounds, or enabling without a watch
// folder, is a [report.ConfigError] and changes nothing. Disabling stops
// the pending timer at once.
func (c *Controller) SetAutoRefresh(enabled bool, interval int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotOpen
	}
	wc := c.st.Watch
	wc.AutoRefresh = enabled
	if interval != 0 {
		if err := c.cfg.CheckInterval(interval); err != nil {
			return err
		}
		wc.Interval = interval
	}
	if err := wc.Validate(c.cfg); err != nil {
		return err
	}
	changed := wc != c.st.Watch
	c.st.Watch = wc
	switch {
	case !enabled:
		c.stopAuto()
	case changed || c.auto == nil:
		c.startAuto()
	}
	if !changed && !c.dirty {
		return nil
	}
	c.log.Info("auto-refresh set", "enabled", enabled, "interval", wc.Interval)
	return c.save()
}
