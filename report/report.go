// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report defines the error taxonomy of the texture engine
// and the notifications it hands to the host for display.
//
// Every failure that reaches the host carries a [Kind] together with
// enough context (operation, object identifier, file name) to act on.
package report

import (
	"fmt"
	"strings"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
)

// Kind is the category of a failure.
type Kind int32

const (
	// Unknown is an error that did not come through this package.
	Unknown Kind = iota

	// IOError is a filesystem failure: permissions, missing path, disk full.
	IOError

	// FormatError is an unsupported or unreadable image file.
	FormatError

	// StateCorrupt is an unreadable or malformed persisted state document.
	StateCorrupt

	// BindError is a rejection by the host appearance system.
	BindError

	// ConfigError is an invalid setting, such as a bad refresh interval
	// or an empty watch path when enabling auto-refresh.
	ConfigError
)

var kindNames = [...]string{"Unknown", "IOError", "FormatError", "StateCorrupt", "BindError", "ConfigError"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
	return kindNames[k]
}

// Error is an error with a [Kind] and the context it happened in.
type Error struct {
	// Kind is the failure category.
	Kind Kind

	// Op is the operation that failed, e.g. "ingest" or "save".
	Op string

	// Object is the object identifier concerned, if any.
	Object string

	// File is the file name concerned, if any.
	File string

	// Err is the underlying error.
	Err error
}

// New returns a new [Error] of the given kind for the given operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf returns a new [Error] with a formatted message as its underlying error.
func Errorf(kind Kind, op string, format string, a ...any) *Error {
	return New(kind, op, fmt.Errorf(format, a...))
}

// WithObject sets the object identifier and returns the error.
func (e *Error) WithObject(id string) *Error {
	e.Object = id
	return e
}

// WithFile sets the file name and returns the error.
func (e *Error) WithFile(name string) *Error {
	e.File = name
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Object != "" {
		b.WriteString(" ")
		b.WriteString(e.Object)
	}
	if e.File != "" {
		b.WriteString(" ")
		b.WriteString(e.File)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the [Kind] of the first [Error] in the chain of err,
// or [Unknown] if there is none.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return Unknown
}

// IsKind reports whether err has the given [Kind].
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
