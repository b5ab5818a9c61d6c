// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	lv, err := ParseLevel("Warning")
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lv)
	lv, err = ParseLevel("")
	assert.NoError(t, err)
	assert.Equal(t, UserLevel, lv)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(&buf, slog.LevelWarn)
	lg.Info("hidden")
	lg.Warn("shown", "object", "Cube")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "object=Cube")
}
