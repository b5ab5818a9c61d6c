// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package state holds the persistent binding table of a project
// (object to texture) together with the watch folder settings,
// and loads and saves it as a single document in the project root.
package state

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/tlahitte/karamove-texture-drawing/config"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

// WatchConfig is the watch folder configuration.
type WatchConfig struct {

	// Path is the absolute watch folder path.
	Path string `json:"path" toml:"path" yaml:"path"`

	// Enabled is whether the watch folder is used at all.
	Enabled bool `json:"enabled" toml:"enabled" yaml:"enabled"`

	// AutoRefresh is whether sync passes run on a timer.
	AutoRefresh bool `json:"auto_refresh" toml:"auto_refresh" yaml:"auto_refresh"`

	// Interval is the auto-refresh interval in seconds.
	Interval int `json:"interval" toml:"interval" yaml:"interval"`
}

// Period returns the interval as a [time.Duration].
func (wc WatchConfig) Period() time.Duration {
	return time.Duration(wc.Interval) * time.Second
}

// Validate checks that auto-refresh can run with these settings:
// a watch path is set and the interval is within the bounds of cfg.
func (wc WatchConfig) Validate(cfg *config.Config) error {
	if !wc.AutoRefresh {
		return nil
	}
	if wc.Path == "" {
		return report.Errorf(report.ConfigError, "set-auto-refresh", "no watch folder set")
	}
	return cfg.CheckInterval(wc.Interval)
}

// Binding associates a scene object with its current texture.
type Binding struct {

	// Object is the object identifier, unique within the project.
	Object string `json:"object" toml:"object" yaml:"object"`

	// Texture is the project-relative path of the texture asset;
	// empty means the fallback (flat white) appearance.
	Texture string `json:"texture" toml:"texture" yaml:"texture"`

	// Source is the watch folder file name last applied.
	Source string `json:"source" toml:"source" yaml:"source"`

	// Hash is the content hash of the texture asset.
	Hash string `json:"hash" toml:"hash" yaml:"hash"`

	// Size is the byte size of the texture asset.
	Size int64 `json:"size" toml:"size" yaml:"size"`

	// Version counts the textures applied to this object's slot.
	Version int `json:"version" toml:"version" yaml:"version"`

	// Applied is when the texture was last applied.
	Applied time.Time `json:"applied" toml:"applied" yaml:"applied"`
}

// HasTexture reports whether the binding has a texture,
// as opposed to the fallback appearance.
func (b Binding) HasTexture() bool {
	return b.Texture != ""
}

// Cleared returns the binding reset to the fallback appearance,
// keeping its version counter so that later textures stay ordered.
func (b Binding) Cleared() Binding {
	return Binding{Object: b.Object, Version: b.Version}
}

// ProjectState is everything persisted for a project.
type ProjectState struct {
	Watch    WatchConfig
	Bindings Bindings
}

// New returns an empty state with the default refresh interval of cfg.
func New(cfg *config.Config) *ProjectState {
	ps := &ProjectState{}
	ps.Watch.Interval = cfg.DefaultInterval
	ps.Bindings.Init()
	return ps
}

// timeCopy keeps time.Time values intact through a deep copy.
var timeCopy = copier.TypeConverter{
	SrcType: time.Time{},
	DstType: time.Time{},
	Fn: func(src any) (any, error) {
		return src, nil
	},
}

// Clone returns a deep copy of the state.
func (ps *ProjectState) Clone() *ProjectState {
	cp := &ProjectState{}
	err := copier.CopyWithOption(cp, ps, copier.Option{DeepCopy: true, Converters: []copier.TypeConverter{timeCopy}})
	if err != nil {
		// copier only fails on mismatched types, which cannot happen here
		panic(err)
	}
	cp.Bindings.Init()
	return cp
}
