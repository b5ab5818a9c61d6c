// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imagex provides the image formats accepted as drawings,
// content sniffing of incoming files, and helpers for preparing
// decoded images for use as textures.
package imagex

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Formats are the image formats accepted as drawings.
type Formats int32

const (
	None Formats = iota
	PNG
	JPEG
	GIF
	TIFF
	BMP
	WebP
)

var formatNames = [...]string{"None", "PNG", "JPEG", "GIF", "TIFF", "BMP", "WebP"}

func (f Formats) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Formats(%d)", int32(f))
	}
	return formatNames[f]
}

// ErrUnknownFormat is returned when content or extension does not
// correspond to a supported image format.
var ErrUnknownFormat = errors.New("imagex: unknown image format")

// ExtToFormat returns the format of a file name extension,
// with or without its leading dot, ignoring case.
func ExtToFormat(ext string) (Formats, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "tif", "tiff":
		return TIFF, nil
	case "bmp":
		return BMP, nil
	case "webp":
		return WebP, nil
	}
	return None, fmt.Errorf("imagex: extension %q: %w", ext, ErrUnknownFormat)
}

// sniffLen is the number of header bytes needed by filetype.
const sniffLen = 261

// Sniff inspects the leading bytes of the named file and returns
// the image format that its content actually has, independent of
// its extension. Non-image content returns [ErrUnknownFormat].
func Sniff(filename string) (Formats, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return None, err
	}
	defer fp.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(fp, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return None, err
	}
	head = head[:n]
	if !filetype.IsImage(head) {
		return None, fmt.Errorf("%s: %w", filepath.Base(filename), ErrUnknownFormat)
	}
	kind, err := filetype.Match(head)
	if err != nil {
		return None, err
	}
	return ExtToFormat(kind.Extension)
}

// OpenFS decodes the named image from fsys, returning its format,
// which is detected from the content.
func OpenFS(fsys fs.FS, filename string) (image.Image, Formats, error) {
	file, err := fsys.Open(filename)
	if err != nil {
		return nil, None, err
	}
	defer file.Close()
	im, ext, err := image.Decode(file)
	if err != nil {
		return im, None, err
	}
	f, err := ExtToFormat(ext)
	return im, f, err
}

// Save encodes the image in the format given by the extension of
// filename and replaces the file atomically, so that a watcher never
// sees a partly written image.
func Save(im image.Image, filename string) error {
	f, err := ExtToFormat(filepath.Ext(filename))
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := Write(im, &b, f); err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filename, b.Bytes(), 0o644)
}

// Write encodes the image to w in format f. WebP can be decoded
// but not encoded.
func Write(im image.Image, w io.Writer, f Formats) error {
	switch f {
	case PNG:
		return png.Encode(w, im)
	case JPEG:
		return jpeg.Encode(w, im, &jpeg.Options{Quality: 90})
	case GIF:
		return gif.Encode(w, im, nil)
	case TIFF:
		return tiff.Encode(w, im, nil)
	case BMP:
		return bmp.Encode(w, im)
	default:
		return fmt.Errorf("imagex: cannot encode %v: %w", f, ErrUnknownFormat)
	}
}

// AsRGBA returns src itself if it is an [image.RGBA],
// and an RGBA copy of it otherwise.
func AsRGBA(src image.Image) *image.RGBA {
	if src == nil {
		return nil
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	bounds := src.Bounds()
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, src, bounds.Min, draw.Src)
	return img
}

// Fit returns the image scaled down, preserving aspect ratio, so that
// neither dimension exceeds size. Images already within bounds (or size <= 0)
// are returned unchanged.
func Fit(src image.Image, size int) image.Image {
	if src == nil || size <= 0 {
		return src
	}
	sz := src.Bounds().Size()
	if sz.X <= size && sz.Y <= size {
		return src
	}
	w, h := size, size
	if sz.X >= sz.Y {
		h = size * sz.Y / sz.X
	} else {
		w = size * sz.X / sz.Y
	}
	return transform.Resize(src, max(w, 1), max(h, 1), transform.Linear)
}
