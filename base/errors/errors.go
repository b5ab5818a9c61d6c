// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors provides a set of error handling helpers,
// extending the standard library errors package.
// It re-exports the standard functions so that it can be
// imported in place of the standard package.
package errors

import (
	"errors"
	"log/slog"
	"runtime"
	"strconv"
)

// New is the standard [errors.New].
func New(text string) error {
	return errors.New(text)
}

// Is is the standard [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is the standard [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join is the standard [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Unwrap is the standard [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Log takes the given error and logs it if it is non-nil.
// The intended usage is:
//
//	return errors.Log(MyFunc(v))
//	// or
//	return errors.Log(fmt.Errorf("example error: %w", err))
func Log(err error) error {
	if err != nil {
		slog.Error(err.Error() + " | " + CallerInfo())
	}
	return err
}

// Log1 takes the given value and error and returns the value if
// the error is nil, and logs the error and returns a zero value
// if the error is non-nil. The intended usage is:
//
//	a := errors.Log1(MyFunc(v))
func Log1[T any](v T, err error) T {
	if err != nil {
		slog.Error(err.Error() + " | " + CallerInfo())
	}
	return v
}

// CallerInfo returns string information about the caller
// of the function that called CallerInfo.
func CallerInfo() string {
	pc, file, line, _ := runtime.Caller(2)
	return runtime.FuncForPC(pc).Name() + " " + file + ":" + strconv.Itoa(line)
}
