// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan finds new drawings in the watch folder.
//
// The watch folder doubles as a durable queue. A file in it is either
// [Unprocessed] or [Processed], and that status is carried only by its
// name and location: once consumed, a file is renamed with the processed
// prefix (or moved into the archive subfolder) by [Scanner.Mark], and
// [Scanner.Scan] never returns it again. The scanner itself keeps no state.
package scan

import (
	"cmp"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
	"github.com/tlahitte/karamove-texture-drawing/config"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

// Status is the processing status of a file in the watch folder.
type Status int32

const (
	// Unprocessed is a file waiting to be applied.
	Unprocessed Status = iota

	// Processed is a file already consumed by a sync pass.
	Processed
)

func (s Status) String() string {
	switch s {
	case Unprocessed:
		return "Unprocessed"
	case Processed:
		return "Processed"
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// ErrFolderMissing is wrapped by the IOError returned when the watch
// folder does not exist. It is a warning: the folder may be on storage
// that is not mounted yet.
var ErrFolderMissing = errors.New("watch folder does not exist")

// File is a new image found in the watch folder.
type File struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// Scanner scans a watch folder. It holds configuration only.
type Scanner struct {
	cfg *config.Config

	// Now returns the current time, for the settle delay.
	Now func() time.Time
}

// New returns a new scanner.
func New(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg, Now: time.Now}
}

// Classify returns the status of a file from its name.
func (sc *Scanner) Classify(name string) Status {
	if sc.cfg.ProcessedPrefix != "" && strings.HasPrefix(name, sc.cfg.ProcessedPrefix) {
		return Processed
	}
	return Unprocessed
}

// Scan returns the new image files in the folder, ordered by name and
// then modification time. Every call reads the folder afresh.
// Files are new if they are unprocessed, not named in exclude, have an
// accepted extension, are not empty, and have not been modified within
// the settle delay. Hidden files and subfolders are ignored.
//
// Files that would be new but are still within the settle delay are
// only counted, in settling.
//
// A missing folder returns no files and an IOError wrapping
// [ErrFolderMissing]; an empty folder returns no files and no error.
func (sc *Scanner) Scan(folder string, exclude map[string]bool) (files []File, settling int, err error) {
	if folder == "" {
		return nil, 0, report.Errorf(report.ConfigError, "scan", "no watch folder set")
	}
	ents, err := os.ReadDir(folder)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, report.New(report.IOError, "scan", ErrFolderMissing).WithFile(folder)
	}
	if err != nil {
		return nil, 0, report.New(report.IOError, "scan", err).WithFile(folder)
	}
	settle := time.Duration(sc.cfg.Settle)
	now := sc.Now()
	for _, e := range ents {
		name := e.Name()
		switch {
		case e.IsDir(), strings.HasPrefix(name, "."), strings.HasPrefix(name, "~"):
			continue
		case sc.Classify(name) == Processed, exclude[name], !sc.cfg.AllowsExt(name):
			continue
		}
		info, err := e.Info()
		if err != nil { // removed since listing
			continue
		}
		if !info.Mode().IsRegular() || info.Size() == 0 {
			continue
		}
		if settle > 0 && now.Sub(info.ModTime()) < settle {
			settling++
			continue
		}
		files = append(files, File{Name: name, Path: filepath.Join(folder, name), ModTime: info.ModTime(), Size: info.Size()})
	}
	slices.SortStableFunc(files, func(a, b File) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.ModTime.Compare(b.ModTime)
	})
	return files, settling, nil
}

// Mark marks the file as [Processed], by renaming it with the processed
// prefix, or by moving it into the archive subfolder if one is configured.
// Existing files are never overwritten. It returns the new path.
func (sc *Scanner) Mark(f File) (string, error) {
	dir := filepath.Dir(f.Path)
	var dst string
	var err error
	if sc.cfg.ArchiveFolder != "" {
		dst, err = fsx.MoveUnique(f.Path, filepath.Join(dir, sc.cfg.ArchiveFolder), f.Name)
	} else {
		dst, err = fsx.MoveUnique(f.Path, dir, sc.cfg.ProcessedPrefix+f.Name)
	}
	if err != nil {
		return "", report.New(report.IOError, "mark-processed", err).WithFile(f.Name)
	}
	return dst, nil
}
