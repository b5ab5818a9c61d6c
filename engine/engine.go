// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine is the texture synchronization engine: it binds scene
// objects to a watched folder so that drawings dropped into the folder
// show up as live textures on the objects.
//
// A [Controller] runs sync passes (scan, ingest, bind, persist) on
// demand or on a timer, one at a time, and manages the set of bound
// objects. Failures never stop it: they are turned into
// [report.Notification]s for the host to display.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
	"github.com/tlahitte/karamove-texture-drawing/catalog"
	"github.com/tlahitte/karamove-texture-drawing/config"
	"github.com/tlahitte/karamove-texture-drawing/logx"
	"github.com/tlahitte/karamove-texture-drawing/material"
	"github.com/tlahitte/karamove-texture-drawing/project"
	"github.com/tlahitte/karamove-texture-drawing/report"
	"github.com/tlahitte/karamove-texture-drawing/scan"
	"github.com/tlahitte/karamove-texture-drawing/state"
)

var (
	// ErrBusy is returned by [Controller.Refresh] when a pass is already running.
	ErrBusy = errors.New("a sync pass is already running")

	// ErrNotOpen is returned by operations called before [Controller.Open]
	// or after [Controller.Close].
	ErrNotOpen = errors.New("engine is not open")
)

// Options are the optional settings and host callbacks of a [Controller].
// Callbacks are called from the context running the operation, with the
// controller locked: they must not call back into the controller.
type Options struct {

	// Config is the engine configuration; [config.Default] if nil.
	Config *config.Config

	// Logger is the logger; if nil, one is made with [logx.NewLogger]
	// at the configured level.
	Logger *slog.Logger

	// Notify receives warnings and errors to display to the user.
	Notify func(n report.Notification)

	// OnState receives every state transition.
	OnState func(s States)

	// Selection returns the currently selected object identifier
	// (or "") for passes started by the auto-refresh timer.
	Selection func() string
}

// Controller orchestrates sync passes and object management for one project.
// All of its methods are safe to call from any goroutine; mutations of the
// state and of the scene are serialized.
type Controller struct {
	proj    project.Project
	cfg     *config.Config
	log     *slog.Logger
	opts    Options
	host    material.Host
	store   *state.Store
	catalog *catalog.Catalog
	scanner *scan.Scanner
	binder  *material.Binder

	// mu serializes passes and every mutation of st and binder.
	mu sync.Mutex

	st    *state.ProjectState
	state atomic.Int32
	open  bool

	// dirty is set when the last save failed, so the next mutation retries.
	dirty bool

	// consumed are watch folder files already dealt with in this session
	// that could not be marked processed, or that can never be ingested.
	consumed map[string]bool

	auto *autoRefresh

	// pass is the result of the pass in progress, collecting notifications.
	pass *PassResult
}

// New returns a new controller for the given project and scene host.
// Call [Controller.Open] to load the project state before use.
func New(proj project.Project, host material.Host, opts Options) (*Controller, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lg := opts.Logger
	if lg == nil {
		level, err := logx.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, report.New(report.ConfigError, "new-engine", err)
		}
		lg = logx.NewLogger(nil, level)
	}
	store, err := state.NewStore(proj.StatePath, cfg)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		proj:     proj,
		cfg:      cfg,
		log:      lg.With("project", proj.Root),
		opts:     opts,
		host:     host,
		store:    store,
		catalog:  catalog.New(proj.TextureDir, cfg),
		scanner:  scan.New(cfg),
		binder:   material.NewBinder(host, cfg.MaxTextureSize),
		st:       state.New(cfg),
		consumed: map[string]bool{},
	}
	return c, nil
}

// Open loads the project state and restores every binding on the scene.
// A missing state document starts an empty state; a corrupt one is set
// aside (renamed with a .corrupt suffix), reported once, and replaced
// by an empty state. Bindings of objects no longer in the scene are
// pruned, and bindings whose texture file is gone revert to the fallback.
// Auto-refresh starts if the state has it enabled.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return nil
	}
	ps, err := c.store.Load()
	switch {
	case err == nil:
	case errors.Is(err, state.ErrNotFound):
		ps = state.New(c.cfg)
		c.dirty = true
	case report.IsKind(err, report.StateCorrupt):
		c.notify(report.Warn, err)
		dir, base := filepath.Split(c.proj.StatePath)
		if _, merr := fsx.MoveUnique(c.proj.StatePath, dir, base+".corrupt"); merr != nil {
			c.notify(report.Warn, report.New(report.IOError, "load-state", merr).WithFile(base))
		}
		ps = state.New(c.cfg)
		c.dirty = true
	default:
		c.notify(report.Failure, err)
		return err
	}
	c.st = ps
	c.open = true
	if c.st.Watch.Interval == 0 {
		c.st.Watch.Interval = c.cfg.DefaultInterval
		c.dirty = true
	}
	if err := c.st.Watch.Validate(c.cfg); err != nil {
		c.notify(report.Warn, err)
		c.st.Watch.AutoRefresh = false
		c.st.Watch.Interval = min(max(c.st.Watch.Interval, c.cfg.MinInterval), c.cfg.MaxInterval)
		c.dirty = true
	}
	c.restore()
	if c.dirty {
		c.save()
	}
	if c.st.Watch.AutoRefresh {
		c.startAuto()
	}
	c.log.Info("engine open", "objects", c.st.Bindings.Len(), "watch", c.st.Watch.Path, "auto_refresh", c.st.Watch.AutoRefresh)
	return nil
}

// restore applies the appearance of every binding to the scene.
func (c *Controller) restore() {
	c.pruneOrphans()
	for _, b := range c.st.Bindings.All() {
		var tex *material.TextureFile
		if b.HasTexture() {
			path := c.proj.Abs(b.Texture)
			ok, _ := fsx.FileExists(path)
			if ok {
				tex, _ = material.NewTextureFile("", path, b.Hash, c.cfg.MaxTextureSize)
			}
			if tex == nil {
				c.notify(report.Warn, report.Errorf(report.IOError, "restore", "texture file missing, reverting to fallback").WithObject(b.Object).WithFile(b.Texture))
				c.st.Bindings.Set(b.Cleared())
				c.dirty = true
			}
		}
		if err := c.binder.Apply(b.Object, tex); err != nil {
			c.notify(report.Failure, err)
		}
	}
	c.binder.Reconcile(c.st.Bindings.Keys())
}

// pruneOrphans drops the bindings of objects deleted from the scene
// behind the engine's back, along with their texture slots.
func (c *Controller) pruneOrphans() {
	for _, id := range c.st.Bindings.Keys() {
		if c.host.HasObject(id) {
			continue
		}
		c.binder.Release(id)
		if err := c.catalog.Reset(id); err != nil {
			c.notify(report.Warn, err)
		}
		c.st.Bindings.Delete(id)
		c.dirty = true
		c.notify(report.Warn, report.Errorf(report.BindError, "prune", "object no longer in the scene, binding removed").WithObject(id))
	}
}

// Close stops auto-refresh. The state is already saved after every change.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAuto()
	c.open = false
	if c.dirty {
		return c.save()
	}
	return nil
}

// save persists the state, remembering a failure so that it is retried.
func (c *Controller) save() error {
	if err := c.store.Save(c.st); err != nil {
		c.dirty = true
		c.notify(report.Failure, err)
		return err
	}
	c.dirty = false
	return nil
}

// setState records and announces a state transition.
func (c *Controller) setState(s States) {
	c.state.Store(int32(s))
	c.log.Debug("state", "state", s)
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

// notify logs the error and hands it to the host.
func (c *Controller) notify(level report.Level, err error) {
	n := report.FromError(level, err)
	c.emit(n)
}

// inform hands an informational message to the host.
func (c *Controller) inform(format string, a ...any) {
	c.emit(report.Notification{Level: report.Info, Message: fmt.Sprintf(format, a...)})
}

func (c *Controller) emit(n report.Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	if c.pass != nil {
		n.Pass = c.pass.ID
		c.pass.Notifications = append(c.pass.Notifications, n)
	}
	c.log.Log(context.Background(), n.Level.Slog(), n.Message, n.Attrs()...)
	if c.opts.Notify != nil {
		c.opts.Notify(n)
	}
}

// State returns the current state of the state machine.
func (c *Controller) State() States {
	return States(c.state.Load())
}

// Snapshot returns a deep copy of the project state.
func (c *Controller) Snapshot() *state.ProjectState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.Clone()
}

// Bindings returns the current bindings, in the order objects were added,
// for the host to list. Bindings of objects deleted from the scene are
// pruned first.
func (c *Controller) Bindings() []state.Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		c.pruneOrphans()
		if c.dirty {
			c.save()
		}
	}
	return c.st.Clone().Bindings.All()
}

// Watch returns the watch folder configuration.
func (c *Controller) Watch() state.WatchConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.Watch
}

// Appearance returns a copy of the material of the object for the host
// renderer, or nil if the object is not managed.
func (c *Controller) Appearance(id string) *material.Material {
	c.mu.Lock()
	defer c.mu.Unlock()
	mt := c.binder.Appearance(id)
	if mt == nil {
		return nil
	}
	cp := *mt
	return &cp
}
