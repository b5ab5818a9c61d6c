// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package material

import (
	"fmt"
	"image"
	"io/fs"
	"log/slog"

	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
	"github.com/tlahitte/karamove-texture-drawing/base/iox/imagex"
)

// Texture is the interface for all textures.
type Texture interface {
	// AsTextureBase returns the [TextureBase] for this texture,
	// which contains the core data and functionality.
	AsTextureBase() *TextureBase

	// Image returns the image for the texture in the [image.RGBA] format.
	Image() *image.RGBA
}

// TextureBase is the base texture implementation.
// It uses an [image.RGBA] as the underlying image storage.
type TextureBase struct {
	// Name is the name of the texture.
	Name string

	// Transparent is whether the texture has transparency.
	Transparent bool

	// RGBA is the cached internal representation of the image.
	RGBA *image.RGBA
}

func (tx *TextureBase) AsTextureBase() *TextureBase {
	return tx
}

func (tx *TextureBase) Image() *image.RGBA {
	return tx.RGBA
}

// TextureFile is a texture loaded from a file.
type TextureFile struct {
	TextureBase

	// filesystem the file is read from
	FS fs.FS

	// filename for the texture
	File string

	// Hash identifies the file content. A new hash for the same File
	// is a new texture: the slot file was overwritten.
	Hash string

	// MaxSize is the largest allowed dimension; bigger images are
	// scaled down on load. 0 = no limit.
	MaxSize int
}

// NewTextureFile returns a new texture of given name reading from
// the given filename, identified by the given content hash.
func NewTextureFile(name, filename, hash string, maxSize int) (*TextureFile, error) {
	dfs, fnm, err := fsx.DirFS(filename)
	if err != nil {
		return nil, err
	}
	tx := &TextureFile{FS: dfs, File: fnm, Hash: hash, MaxSize: maxSize}
	tx.Name = name
	return tx, nil
}

// Same reports whether both textures refer to the same file content.
func (tx *TextureFile) Same(o *TextureFile) bool {
	return o != nil && tx.Name == o.Name && tx.File == o.File && tx.Hash == o.Hash
}

// Load decodes the file into the cached image, returning any error.
func (tx *TextureFile) Load() error {
	if tx.File == "" {
		return fmt.Errorf("texture %v: File must be set to a filename to load texture from", tx.Name)
	}
	img, _, err := imagex.OpenFS(tx.FS, tx.File)
	if err != nil {
		return fmt.Errorf("texture %v: %w", tx.Name, err)
	}
	rgba := imagex.AsRGBA(imagex.Fit(img, tx.MaxSize))
	tx.RGBA = rgba
	tx.Transparent = !rgba.Opaque()
	return nil
}

// Image returns the decoded image, loading it on first use.
func (tx *TextureFile) Image() *image.RGBA {
	if tx.RGBA != nil {
		return tx.RGBA
	}
	if err := tx.Load(); err != nil {
		slog.Error("material.TextureFile: image load error", "file", tx.File, "error", err)
		return nil
	}
	return tx.RGBA
}
