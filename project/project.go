// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package project resolves the on-disk layout of a project: its root
// directory, the texture asset folder and the state document.
package project

import (
	"path/filepath"
	"strings"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
	"github.com/tlahitte/karamove-texture-drawing/config"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

// ErrNoProject is returned when there is no project root yet,
// typically because the host project has never been saved.
var ErrNoProject = errors.New("no project root: save the project first")

// Project is the persistence scope of the engine.
type Project struct {

	// Root is the absolute project root directory.
	Root string

	// TextureDir is the absolute texture asset folder.
	TextureDir string

	// StatePath is the absolute path of the state document.
	StatePath string
}

// New returns the [Project] rooted at the given directory, which must exist.
func New(root string, cfg *config.Config) (Project, error) {
	if strings.TrimSpace(root) == "" {
		return Project{}, report.New(report.ConfigError, "open-project", ErrNoProject)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Project{}, report.New(report.IOError, "open-project", err).WithFile(root)
	}
	ok, err := fsx.DirExists(abs)
	if err != nil {
		return Project{}, report.New(report.IOError, "open-project", err).WithFile(abs)
	}
	if !ok {
		return Project{}, report.New(report.IOError, "open-project", ErrNoProject).WithFile(abs)
	}
	return Project{
		Root:       abs,
		TextureDir: filepath.Join(abs, cfg.TextureFolder),
		StatePath:  filepath.Join(abs, cfg.StateFile),
	}, nil
}

// Rel returns path relative to the project root in slash form,
// the form used for texture references in the state document.
func (p Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Abs returns the absolute path of a project-relative reference.
func (p Project) Abs(ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(p.Root, filepath.FromSlash(ref))
}
