// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tlahitte/karamove-texture-drawing/base/errors"
)

// Level is the severity of a [Notification].
type Level int32

const (
	Info Level = iota
	Warn
	Failure
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warning"
	case Failure:
		return "error"
	}
	return fmt.Sprintf("Level(%d)", int32(l))
}

// Slog returns the matching [slog.Level].
func (l Level) Slog() slog.Level {
	switch l {
	case Warn:
		return slog.LevelWarn
	case Failure:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Notification is a message for the host to surface to the user.
type Notification struct {
	Level   Level
	Kind    Kind
	Op      string
	Object  string
	File    string
	Message string

	// Pass is the id of the sync pass that produced it, if any.
	Pass string

	Time time.Time
}

// FromError makes a notification at the given level from err,
// taking the context of a wrapped [Error] when there is one.
func FromError(level Level, err error) Notification {
	n := Notification{Level: level, Message: err.Error(), Time: time.Now()}
	var re *Error
	if errors.As(err, &re) {
		n.Kind = re.Kind
		n.Op = re.Op
		n.Object = re.Object
		n.File = re.File
	}
	return n
}

func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s", n.Level, n.Message)
}

// Attrs returns the notification context as slog key-value pairs.
func (n Notification) Attrs() []any {
	args := []any{"kind", n.Kind.String()}
	if n.Op != "" {
		args = append(args, "op", n.Op)
	}
	if n.Object != "" {
		args = append(args, "object", n.Object)
	}
	if n.File != "" {
		args = append(args, "file", n.File)
	}
	if n.Pass != "" {
		args = append(args, "pass", n.Pass)
	}
	return args
}
