// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlahitte/karamove-texture-drawing/config"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Settle = 0
	return cfg
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644))
}

func names(files []File) []string {
	var nms []string
	for _, f := range files {
		nms = append(nms, f.Name)
	}
	return nms
}

func TestScanEmpty(t *testing.T) {
	files, settling, err := New(testConfig()).Scan(t.TempDir(), nil)
	assert.NoError(t, err)
	assert.Empty(t, files)
	assert.Zero(t, settling)
}

func TestScanMissingFolder(t *testing.T) {
	files, _, err := New(testConfig()).Scan(filepath.Join(t.TempDir(), "unmounted"), nil)
	assert.Empty(t, files)
	assert.ErrorIs(t, err, ErrFolderMissing)
	assert.True(t, report.IsKind(err, report.IOError))

	_, _, err = New(testConfig()).Scan("", nil)
	assert.True(t, report.IsKind(err, report.ConfigError))
}

func TestScanFilterAndOrder(t *testing.T) {
	dir := t.TempDir()
	for _, nm := range []string{"c.png", "a.JPG", "b.jpeg", "notes.txt", ".hidden.png", "~lock.png", "processed_z.png", "skip.png"} {
		touch(t, dir, nm)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.png"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	files, _, err := New(testConfig()).Scan(dir, map[string]bool{"skip.png": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.JPG", "b.jpeg", "c.png"}, names(files))
	assert.Equal(t, filepath.Join(dir, "a.JPG"), files[0].Path)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScanSettle(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "fresh.png")
	cfg := testConfig()
	cfg.Settle = config.Duration(time.Minute)
	sc := New(cfg)
	files, settling, err := sc.Scan(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, files, "a file still being written is left for later")
	assert.Equal(t, 1, settling)

	sc.Now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	files, settling, err = sc.Scan(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh.png"}, names(files))
	assert.Zero(t, settling)
}

func TestMarkRename(t *testing.T) {
	dir := t.TempDir()
	sc := New(testConfig())
	for range 2 {
		touch(t, dir, "drawing1.png")
		files, _, err := sc.Scan(dir, nil)
		require.NoError(t, err)
		require.Len(t, files, 1)
		_, err = sc.Mark(files[0])
		require.NoError(t, err)
		files, _, err = sc.Scan(dir, nil)
		require.NoError(t, err)
		assert.Empty(t, files, "a marked file is never returned again")
	}
	_, err := os.Stat(filepath.Join(dir, "processed_drawing1.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "processed_drawing1-1.png"))
	assert.NoError(t, err, "the earlier processed file is not overwritten")
	assert.Equal(t, Processed, sc.Classify("processed_drawing1-1.png"))
	assert.Equal(t, Unprocessed, sc.Classify("drawing1.png"))
}

func TestMarkArchive(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.ArchiveFolder = "done"
	sc := New(cfg)
	touch(t, dir, "drawing1.png")
	files, _, err := sc.Scan(dir, nil)
	require.NoError(t, err)
	dst, err := sc.Mark(files[0])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "done", "drawing1.png"), dst)
	files, _, err = sc.Scan(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestMarkMissing(t *testing.T) {
	sc := New(testConfig())
	_, err := sc.Mark(File{Name: "gone.png", Path: filepath.Join(t.TempDir(), "gone.png")})
	assert.True(t, report.IsKind(err, report.IOError))
}
