// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
	"github.com/tlahitte/karamove-texture-drawing/base/iox/jsonx"
	"github.com/tlahitte/karamove-texture-drawing/base/iox/tomlx"
	"github.com/tlahitte/karamove-texture-drawing/base/iox/yamlx"
	"github.com/tlahitte/karamove-texture-drawing/config"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

// Version is the version of the state document written by [Store.Save].
const Version = "1.0.0"

// compatible is the range of document versions [Store.Load] accepts.
var compatible = errors.Log1(semver.NewConstraint("^1"))

var (
	// ErrNotFound is returned by [Store.Load] when there is no state
	// document yet. It is not a failure: start from an empty state.
	ErrNotFound = errors.New("state document not found")

	// ErrCorrupt is wrapped by StateCorrupt errors from [Store.Load].
	ErrCorrupt = errors.New("state document is corrupt")
)

// document is the on-disk layout of a [ProjectState]. The trailing
// fields are those of the unversioned v0 data file, read for import only.
type document struct {
	Version  string      `json:"version" toml:"version" yaml:"version"`
	Watch    WatchConfig `json:"watch" toml:"watch" yaml:"watch"`
	Bindings []Binding   `json:"bindings" toml:"bindings" yaml:"bindings"`

	Objects         []string `json:"objects,omitempty" toml:"objects,omitempty" yaml:"objects,omitempty"`
	WatchFolder     string   `json:"watch_folder,omitempty" toml:"watch_folder,omitempty" yaml:"watch_folder,omitempty"`
	AutoRefresh     *bool    `json:"auto_refresh,omitempty" toml:"auto_refresh,omitempty" yaml:"auto_refresh,omitempty"`
	RefreshInterval int      `json:"refresh_interval,omitempty" toml:"refresh_interval,omitempty" yaml:"refresh_interval,omitempty"`
}

func (d *document) isLegacy() bool {
	return d.Objects != nil || d.WatchFolder != "" || d.AutoRefresh != nil || d.RefreshInterval != 0
}

// codec is a pair of open and save functions for one encoding.
type codec struct {
	open func(v any, filename string) error
	save func(v any, filename string) error
}

var codecs = map[string]codec{
	".json": {jsonx.Open, jsonx.Save},
	".toml": {tomlx.Open, tomlx.Save},
	".yaml": {yamlx.Open, yamlx.Save},
	".yml":  {yamlx.Open, yamlx.Save},
}

// Store loads and saves the [ProjectState] document at Path.
// The encoding is chosen from the file extension.
type Store struct {
	Path string

	cfg   *config.Config
	codec codec
}

// NewStore returns a store for the given document path.
func NewStore(path string, cfg *config.Config) (*Store, error) {
	cd, ok := codecs[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, report.Errorf(report.ConfigError, "open-state", "unsupported state document type %q", filepath.Ext(path)).WithFile(path)
	}
	return &Store{Path: path, cfg: cfg, codec: cd}, nil
}

// Load reads the state document. It returns [ErrNotFound] if there is none,
// and a StateCorrupt error wrapping [ErrCorrupt] if it cannot be used.
func (s *Store) Load() (*ProjectState, error) {
	var doc document
	err := s.codec.open(&doc, s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return nil, report.New(report.IOError, "load-state", err).WithFile(s.Path)
		}
		return nil, s.corrupt(err)
	}
	if doc.Version == "" {
		if !doc.isLegacy() {
			return nil, s.corrupt(errors.New("missing version"))
		}
		return s.fromLegacy(&doc), nil
	}
	v, err := semver.NewVersion(doc.Version)
	if err != nil {
		return nil, s.corrupt(err)
	}
	if !compatible.Check(v) {
		return nil, s.corrupt(fmt.Errorf("unsupported document version %s", v))
	}
	bs, err := makeBindings(doc.Bindings)
	if err != nil {
		return nil, s.corrupt(err)
	}
	return &ProjectState{Watch: doc.Watch, Bindings: bs}, nil
}

func (s *Store) corrupt(err error) error {
	return report.New(report.StateCorrupt, "load-state", fmt.Errorf("%w: %w", ErrCorrupt, err)).WithFile(s.Path)
}

// fromLegacy imports an unversioned v0 data file: managed
// objects start out with the fallback appearance.
func (s *Store) fromLegacy(doc *document) *ProjectState {
	ps := New(s.cfg)
	ps.Watch.Path = doc.WatchFolder
	ps.Watch.Enabled = doc.WatchFolder != ""
	if doc.AutoRefresh != nil {
		ps.Watch.AutoRefresh = *doc.AutoRefresh
	}
	if doc.RefreshInterval > 0 {
		ps.Watch.Interval = doc.RefreshInterval
	}
	for _, id := range doc.Objects {
		if id != "" {
			ps.Bindings.Add(id)
		}
	}
	return ps
}

// Save writes the state document atomically: if it fails,
// the previously saved document is left as it was.
func (s *Store) Save(ps *ProjectState) error {
	doc := document{
		Version:  Version,
		Watch:    ps.Watch,
		Bindings: ps.Bindings.All(),
	}
	if doc.Bindings == nil {
		doc.Bindings = []Binding{}
	}
	if err := s.codec.save(&doc, s.Path); err != nil {
		return report.New(report.IOError, "save-state", err).WithFile(s.Path)
	}
	return nil
}
