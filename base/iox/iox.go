// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iox provides boilerplate wrapper functions for the Go standard
// io functions to Read, Open, Write, and Save, with implementations for
// commonly used encoding formats (see jsonx, tomlx and yamlx).
// Save always goes through an atomic temp-then-rename write.
package iox

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/tlahitte/karamove-texture-drawing/base/fsx"
)

// Decoder is an interface for standard decoder types
type Decoder interface {
	// Decode decodes from io.Reader specified at creation
	Decode(v any) error
}

// DecoderFunc is a function that creates a new Decoder for given reader
type DecoderFunc func(r io.Reader) Decoder

// Encoder is an interface for standard encoder types
type Encoder interface {
	// Encode encodes to io.Writer specified at creation
	Encode(v any) error
}

// EncoderFunc is a function that creates a new Encoder for given writer
type EncoderFunc func(w io.Writer) Encoder

// Open reads the given object from the given filename using the given [DecoderFunc].
// A missing file is reported with an error satisfying errors.Is(err, fs.ErrNotExist).
func Open(v any, filename string, f DecoderFunc) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	return Read(v, bufio.NewReader(fp), f)
}

// Read reads the given object from the given reader,
// using the given [DecoderFunc].
func Read(v any, reader io.Reader, f DecoderFunc) error {
	d := f(reader)
	return d.Decode(v)
}

// Save writes the given object to the given filename using the given [EncoderFunc].
// The file is replaced atomically: on failure, the previous contents are kept.
func Save(v any, filename string, f EncoderFunc) error {
	b, err := WriteBytes(v, f)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filename, b, 0o644)
}

// Write writes the given object using the given [EncoderFunc].
// If the encoder needs closing to flush, it is closed.
func Write(v any, writer io.Writer, f EncoderFunc) error {
	e := f(writer)
	if err := e.Encode(v); err != nil {
		return err
	}
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WriteBytes writes the given object, returning bytes of the encoding,
// using the given [EncoderFunc].
func WriteBytes(v any, f EncoderFunc) ([]byte, error) {
	var b bytes.Buffer
	if err := Write(v, &b, f); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
