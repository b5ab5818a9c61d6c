// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package catalog owns the texture asset folder of a project.
//
// Each object identifier owns exactly one slot in the folder, named
// from the object identifier (for example T_Cube.png). Ingesting a new
// image for an object overwrites its slot, so the folder never grows
// beyond one file per object.
package catalog

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bios-Marcel/wastebasket/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
	"github.com/tlahitte/karamove-texture-drawing/base/iox/imagex"
	"github.com/tlahitte/karamove-texture-drawing/config"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

// Asset is a texture file in the slot of an object.
type Asset struct {

	// Object is the identifier of the object owning the slot.
	Object string

	// Name is the canonical file name in the texture folder.
	Name string

	// Path is the absolute path of the file.
	Path string

	// Source is the name of the file it was imported from.
	Source string

	// Size is the byte size of the file.
	Size int64

	// Hash is the hex blake2b-256 hash of the file content.
	Hash string

	// Format is the image format of the content.
	Format imagex.Formats

	// Imported is when the file was imported.
	Imported time.Time

	// replaced maps the backup of each file the ingest replaced to its
	// original path, until [Catalog.Commit] or [Catalog.Rollback].
	replaced map[string]string
}

// Catalog manages the slots of the texture folder Dir.
type Catalog struct {
	Dir string

	cfg *config.Config
}

// New returns a catalog for the given texture folder.
// The folder is created on first ingest.
func New(dir string, cfg *config.Config) *Catalog {
	return &Catalog{Dir: dir, cfg: cfg}
}

// formatExt is the canonical file extension for each format.
var formatExt = map[imagex.Formats]string{
	imagex.PNG:  ".png",
	imagex.JPEG: ".jpg",
	imagex.GIF:  ".gif",
	imagex.TIFF: ".tif",
	imagex.BMP:  ".bmp",
	imagex.WebP: ".webp",
}

// SlotStem returns the file name of the slot of the object,
// without extension, in Unicode normal form C. Characters that cannot
// appear in file names are replaced by underscores.
func (c *Catalog) SlotStem(id string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, norm.NFC.String(strings.TrimSpace(id)))
	if clean == "" || clean == "." || clean == ".." {
		clean = "_"
	}
	return c.cfg.SlotPrefix + clean
}

// slotFiles returns the paths of all the existing files in the slot of
// the object, one per accepted extension at most.
func (c *Catalog) slotFiles(id string) ([]string, error) {
	stem := c.SlotStem(id)
	var files []string
	seen := map[string]bool{}
	for _, ext := range c.cfg.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if seen[ext] {
			continue
		}
		seen[ext] = true
		fn := filepath.Join(c.Dir, stem+"."+ext)
		ok, err := fsx.FileExists(fn)
		if err != nil {
			return files, err
		}
		if ok {
			files = append(files, fn)
		}
	}
	return files, nil
}

// Slot returns the path of the current file in the slot of the object,
// with false if the slot is empty.
func (c *Catalog) Slot(id string) (string, bool) {
	files, err := c.slotFiles(id)
	if err != nil || len(files) == 0 {
		return "", false
	}
	return files[0], true
}

// backupName returns the hidden name under which a slot file is kept
// while an ingest replacing it is pending.
func backupName(fn string) string {
	return filepath.Join(filepath.Dir(fn), "."+filepath.Base(fn)+".prev")
}

// Ingest copies the source image into the slot of the object, replacing
// whatever the slot held before. The source file is not modified:
// marking it as consumed is the job of the caller.
//
// The replaced files are kept aside until the caller calls
// [Catalog.Commit] once the new asset is in use, or [Catalog.Rollback]
// to restore the slot as it was.
// It returns a FormatError for files that are not accepted images,
// and an IOError for filesystem failures.
func (c *Catalog) Ingest(id, src string) (*Asset, error) {
	name := filepath.Base(src)
	fail := func(kind report.Kind, err error) error {
		return report.New(kind, "ingest", err).WithObject(id).WithFile(name)
	}
	if !c.cfg.AllowsExt(name) {
		return nil, fail(report.FormatError, fmt.Errorf("extension %q is not accepted", filepath.Ext(name)))
	}
	format, err := imagex.Sniff(src)
	if errors.Is(err, imagex.ErrUnknownFormat) {
		return nil, fail(report.FormatError, err)
	}
	if err != nil {
		return nil, fail(report.IOError, err)
	}
	ext := formatExt[format]
	if !c.cfg.AllowsExt(ext) {
		return nil, fail(report.FormatError, fmt.Errorf("content is %s, which is not accepted", format))
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fail(report.IOError, err)
	}
	old, err := c.slotFiles(id)
	if err != nil {
		return nil, fail(report.IOError, err)
	}
	canon := c.SlotStem(id) + ext
	a := &Asset{
		Object:   id,
		Name:     canon,
		Path:     filepath.Join(c.Dir, canon),
		Source:   name,
		Format:   format,
		replaced: map[string]string{},
	}
	for _, fn := range old {
		bak := backupName(fn)
		if err := os.Rename(fn, bak); err != nil {
			errors.Log(c.restore(a))
			return nil, fail(report.IOError, err)
		}
		a.replaced[bak] = fn
	}
	a.Size, err = fsx.CopyFileAtomic(a.Path, src)
	if err == nil {
		a.Hash, err = Hash(a.Path)
	}
	if err != nil {
		errors.Log(c.Rollback(a))
		return nil, fail(report.IOError, err)
	}
	a.Imported = time.Now().UTC()
	return a, nil
}

// Commit discards the files replaced by the ingest of the asset.
func (c *Catalog) Commit(a *Asset) error {
	var errs []error
	for bak := range a.replaced {
		if err := os.Remove(bak); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	a.replaced = nil
	if err := errors.Join(errs...); err != nil {
		return report.New(report.IOError, "commit", err).WithObject(a.Object).WithFile(a.Name)
	}
	return nil
}

// Rollback undoes the ingest of the asset: its file is removed and the
// slot gets back the files it held before.
func (c *Catalog) Rollback(a *Asset) error {
	err := os.Remove(a.Path)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	err = errors.Join(err, c.restore(a))
	if err != nil {
		return report.New(report.IOError, "rollback", err).WithObject(a.Object).WithFile(a.Name)
	}
	return nil
}

// restore renames the backups of the asset back to their original paths.
func (c *Catalog) restore(a *Asset) error {
	var errs []error
	for bak, fn := range a.replaced {
		if err := os.Rename(bak, fn); err != nil {
			errs = append(errs, err)
		}
	}
	a.replaced = nil
	return errors.Join(errs...)
}

// Reset empties the slot of the object. An empty slot is not an error.
// With [config.Config.TrashOnReset], files go to the system trash.
func (c *Catalog) Reset(id string) error {
	stem := c.SlotStem(id)
	for _, ext := range c.cfg.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		os.Remove(backupName(filepath.Join(c.Dir, stem+"."+ext))) // left over by an interrupted ingest
	}
	files, err := c.slotFiles(id)
	if err == nil && len(files) > 0 {
		if c.cfg.TrashOnReset {
			err = wastebasket.Trash(files...)
		} else {
			for _, fn := range files {
				if rerr := os.Remove(fn); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
					err = errors.Join(err, rerr)
				}
			}
		}
	}
	if err != nil {
		return report.New(report.IOError, "reset", err).WithObject(id)
	}
	return nil
}

// Hash returns the hex blake2b-256 hash of the content of the named file.
func Hash(filename string) (string, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer fp.Close()
	h := errors.Log1(blake2b.New256(nil))
	if _, err := io.Copy(h, fp); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
