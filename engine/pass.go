// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tlahitte/karamove-texture-drawing/base/errors"
	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
	"github.com/tlahitte/karamove-texture-drawing/catalog"
	"github.com/tlahitte/karamove-texture-drawing/material"
	"github.com/tlahitte/karamove-texture-drawing/report"
	"github.com/tlahitte/karamove-texture-drawing/scan"
	"github.com/tlahitte/karamove-texture-drawing/state"
)

// Applied records one drawing applied to an object during a pass.
type Applied struct {
	Object string

	// Source is the name of the drawing in the watch folder.
	Source string

	// Marked is the path the drawing was moved to once processed,
	// or "" if it could not be marked.
	Marked string

	// Binding is the resulting binding.
	Binding state.Binding
}

// PassResult is the outcome of one sync pass.
type PassResult struct {
	// ID identifies the pass in logs and notifications.
	ID string

	Started time.Time

	// Found is the number of unprocessed drawings found in the watch folder.
	Found int

	Applied []Applied

	// Waiting is the number of drawings left untouched for lack of
	// a target object.
	Waiting int

	// Settling is the number of new drawings skipped because they were
	// modified within the settle delay. They are picked up by a later pass.
	Settling int

	Notifications []report.Notification
}

// Refresh runs one sync pass now: scan the watch folder, ingest new
// drawings, bind them to their object, and persist the result, in that
// order. With the default match policy every new drawing goes to the
// selected object, in file order, so the last one wins.
// It returns [ErrBusy] if a pass is already running. Per-file failures
// are reported, joined, and do not stop the other files.
func (c *Controller) Refresh(ctx context.Context, selected string) (PassResult, error) {
	if !c.mu.TryLock() {
		return PassResult{}, ErrBusy
	}
	defer c.mu.Unlock()
	if !c.open {
		return PassResult{}, ErrNotOpen
	}
	return c.runPass(ctx, selected)
}

// tick runs a pass for the auto-refresh task, skipping it when busy.
func (c *Controller) tick(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	var selected string
	if c.opts.Selection != nil {
		selected = c.opts.Selection()
	}
	if !c.mu.TryLock() {
		c.log.Debug("pass skipped, busy", "trigger", reason)
		return
	}
	defer c.mu.Unlock()
	if !c.open || ctx.Err() != nil {
		return
	}
	c.log.Debug("auto-refresh", "trigger", reason)
	c.runPass(ctx, selected)
}

// assignment is a drawing and the object it goes to.
type assignment struct {
	file   scan.File
	object string
}

func (c *Controller) runPass(ctx context.Context, selected string) (PassResult, error) {
	res := &PassResult{ID: uuid.NewString(), Started: time.Now()}
	c.pass = res
	defer func() { c.pass = nil }()
	lg := c.log.With("pass", res.ID)

	c.setState(Scanning)
	c.pruneOrphans()
	if c.dirty {
		c.save()
	}
	err := c.scanAndApply(ctx, selected, res)
	if err != nil {
		c.setState(Error)
	}
	c.setState(Idle)
	lg.Debug("pass done", "found", res.Found, "applied", len(res.Applied), "waiting", res.Waiting, "settling", res.Settling, "elapsed", time.Since(res.Started))
	return *res, err
}

func (c *Controller) scanAndApply(ctx context.Context, selected string, res *PassResult) error {
	wc := c.st.Watch
	if wc.Path == "" {
		err := report.Errorf(report.ConfigError, "scan", "no watch folder set")
		c.notify(report.Warn, err)
		return err
	}
	files, settling, err := c.scanner.Scan(wc.Path, c.consumed)
	if err != nil {
		c.notify(report.Warn, err)
		return err
	}
	res.Found = len(files)
	res.Settling = settling
	if settling > 0 {
		c.inform("%d new drawing(s) still being written, left for the next pass", settling)
	}
	if len(files) == 0 {
		return nil
	}
	todo := c.assign(files, selected, res)
	if len(todo) == 0 {
		return nil
	}
	c.setState(Applying)
	var errs []error
	for _, as := range todo {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ap, err := c.applyFile(as)
		if err != nil {
			c.notify(report.Failure, err)
			errs = append(errs, err)
			continue
		}
		res.Applied = append(res.Applied, *ap)
	}
	return errors.Join(errs...)
}

// applyFile ingests one drawing, binds it, persists the binding and
// finally marks the drawing processed. A drawing identical to the one
// already bound is only marked.
func (c *Controller) applyFile(as assignment) (*Applied, error) {
	f, id := as.file, as.object
	prev, _ := c.st.Bindings.Get(id)
	ap := &Applied{Object: id, Source: f.Name}
	if prev.HasTexture() && prev.Source == f.Name {
		if h, err := catalog.Hash(f.Path); err == nil && h == prev.Hash {
			c.log.Info("drawing already applied", "object", id, "file", f.Name)
			ap.Binding = prev
			ap.Marked = c.mark(f)
			return ap, nil
		}
	}

	asset, err := c.catalog.Ingest(id, f.Path)
	if err != nil {
		if report.IsKind(err, report.FormatError) {
			c.consumed[f.Name] = true
		}
		return nil, err
	}
	tex, err := material.NewTextureFile("", asset.Path, asset.Hash, c.cfg.MaxTextureSize)
	if err != nil {
		err = report.New(report.IOError, "bind", err).WithObject(id).WithFile(asset.Name)
	} else {
		err = c.binder.Apply(id, tex)
	}
	if err != nil {
		c.rollback(asset, prev)
		return nil, err
	}
	b := state.Binding{
		Object:  id,
		Texture: c.proj.Rel(asset.Path),
		Source:  asset.Source,
		Hash:    asset.Hash,
		Size:    asset.Size,
		Version: prev.Version + 1,
		Applied: asset.Imported,
	}
	c.st.Bindings.Set(b)
	ap.Binding = b
	if err := c.catalog.Commit(asset); err != nil {
		c.log.Warn("replaced texture not removed", "object", id, "err", err)
	}
	if err := c.save(); err != nil {
		return nil, err
	}
	c.log.Info("texture applied", "object", id, "file", f.Name, "texture", b.Texture, "version", b.Version)
	ap.Marked = c.mark(f)
	return ap, nil
}

// rollback restores the slot of the object after a failed bind, so that
// it matches the previous binding again. If the previous texture is
// gone anyway, the binding is cleared.
func (c *Controller) rollback(asset *catalog.Asset, prev state.Binding) {
	if err := c.catalog.Rollback(asset); err != nil {
		c.notify(report.Warn, err)
	}
	if !prev.HasTexture() {
		return
	}
	if ok, _ := fsx.FileExists(c.proj.Abs(prev.Texture)); !ok {
		c.st.Bindings.Set(prev.Cleared())
		c.save()
	}
}

// mark renames the drawing as processed. If that fails the drawing is
// remembered so that it is not applied again in this session.
func (c *Controller) mark(f scan.File) string {
	name, err := c.scanner.Mark(f)
	if err != nil {
		c.consumed[f.Name] = true
		c.notify(report.Warn, err)
		return ""
	}
	return name
}
