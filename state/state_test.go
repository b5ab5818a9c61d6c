// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state

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

func testState() *ProjectState {
	ps := New(config.Default())
	ps.Watch = WatchConfig{Path: "/srv/drawings", Enabled: true, AutoRefresh: true, Interval: 3}
	ps.Bindings.Add("Cube")
	ps.Bindings.Set(Binding{
		Object:  "Suzanne",
		Texture: "textures/T_Suzanne.png",
		Source:  "drawing1.png",
		Hash:    "abc123",
		Size:    2048,
		Version: 2,
		Applied: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
	})
	return ps
}

func assertStateEqual(t *testing.T, want, got *ProjectState) {
	t.Helper()
	assert.Equal(t, want.Watch, got.Watch)
	require.Equal(t, want.Bindings.Keys(), got.Bindings.Keys())
	for i, wb := range want.Bindings.Order {
		gb := got.Bindings.Order[i]
		assert.True(t, wb.Applied.Equal(gb.Applied), "applied time of %s", wb.Object)
		wb.Applied, gb.Applied = time.Time{}, time.Time{}
		assert.Equal(t, wb, gb)
	}
}

func TestBindings(t *testing.T) {
	var bs Bindings
	assert.True(t, bs.Add("a"))
	assert.True(t, bs.Add("b"))
	assert.True(t, bs.Add("c"))
	assert.False(t, bs.Add("b"), "no duplicate entries")
	assert.Equal(t, []string{"a", "b", "c"}, bs.Keys())

	assert.True(t, bs.Delete("a"))
	assert.False(t, bs.Delete("a"))
	assert.Equal(t, []string{"b", "c"}, bs.Keys())
	b, ok := bs.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "c", b.Object)
	assert.Equal(t, 1, bs.Map["c"])

	bs.Set(Binding{Object: "b", Texture: "textures/T_b.png"})
	b, _ = bs.Get("b")
	assert.True(t, b.HasTexture())
	assert.Equal(t, 2, bs.Len())
}

func TestBindingsAddRemoveSequence(t *testing.T) {
	var bs Bindings
	ops := []bool{true, true, false, true, false, false, true}
	for _, add := range ops {
		if add {
			bs.Add("Cube")
		} else {
			bs.Delete("Cube")
		}
	}
	assert.Equal(t, 1, bs.Len())
	b, _ := bs.Get("Cube")
	assert.Equal(t, Binding{Object: "Cube"}, b)
}

func TestMakeBindingsDuplicate(t *testing.T) {
	_, err := makeBindings([]Binding{{Object: "a"}, {Object: "a"}})
	assert.Error(t, err)
	_, err = makeBindings([]Binding{{Object: ""}})
	assert.Error(t, err)
}

func TestCleared(t *testing.T) {
	b := Binding{Object: "Cube", Texture: "textures/T_Cube.png", Source: "x.png", Version: 4, Applied: time.Now()}
	c := b.Cleared()
	assert.False(t, c.HasTexture())
	assert.Equal(t, Binding{Object: "Cube", Version: 4}, c)
}

func TestClone(t *testing.T) {
	ps := testState()
	cp := ps.Clone()
	assertStateEqual(t, ps, cp)

	cp.Bindings.Delete("Cube")
	cp.Watch.Path = "/elsewhere"
	assert.True(t, ps.Bindings.Has("Cube"), "clone must not share the index map")
	assert.Equal(t, 2, ps.Bindings.Len())
	assert.Equal(t, "/srv/drawings", ps.Watch.Path)
}

func TestWatchConfigValidate(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, WatchConfig{}.Validate(cfg))
	assert.True(t, report.IsKind(WatchConfig{AutoRefresh: true, Interval: 5}.Validate(cfg), report.ConfigError))
	assert.True(t, report.IsKind(WatchConfig{AutoRefresh: true, Path: "/x", Interval: 0}.Validate(cfg), report.ConfigError))
	assert.NoError(t, WatchConfig{AutoRefresh: true, Path: "/x", Interval: 1}.Validate(cfg))
	assert.Equal(t, 3*time.Second, WatchConfig{Interval: 3}.Period())
}

func TestStoreRoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".toml", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			st, err := NewStore(filepath.Join(t.TempDir(), "state"+ext), config.Default())
			require.NoError(t, err)
			ps := testState()
			require.NoError(t, st.Save(ps))
			got, err := st.Load()
			require.NoError(t, err)
			assertStateEqual(t, ps, got)
		})
	}
}

func TestStoreRoundTripEmpty(t *testing.T) {
	st, err := NewStore(filepath.Join(t.TempDir(), "state.json"), config.Default())
	require.NoError(t, err)
	ps := New(config.Default())
	require.NoError(t, st.Save(ps))
	got, err := st.Load()
	require.NoError(t, err)
	assertStateEqual(t, ps, got)
	assert.Equal(t, 5, got.Watch.Interval)
}

func TestStoreNotFound(t *testing.T) {
	st, err := NewStore(filepath.Join(t.TempDir(), "state.json"), config.Default())
	require.NoError(t, err)
	_, err = st.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreCorrupt(t *testing.T) {
	docs := map[string]string{
		"syntax":    `{"version": "1.0.0", "bindings": [`,
		"noversion": `{"bindings": []}`,
		"future":    `{"version": "2.1.0", "bindings": []}`,
		"badver":    `{"version": "one", "bindings": []}`,
		"duplicate": `{"version": "1.0.0", "bindings": [{"object": "a"}, {"object": "a"}]}`,
	}
	for name, data := range docs {
		t.Run(name, func(t *testing.T) {
			fn := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(fn, []byte(data), 0o644))
			st, err := NewStore(fn, config.Default())
			require.NoError(t, err)
			_, err = st.Load()
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.True(t, report.IsKind(err, report.StateCorrupt))
		})
	}
}

func TestStoreLegacy(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "karamove_texture_drawing_data.json")
	data := `{"objects": ["Cube", "Sphere"], "selected_object": "Cube", "watch_folder": "/tmp/in", "auto_refresh": true, "refresh_interval": 10}`
	require.NoError(t, os.WriteFile(fn, []byte(data), 0o644))
	st, err := NewStore(fn, config.Default())
	require.NoError(t, err)
	ps, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, WatchConfig{Path: "/tmp/in", Enabled: true, AutoRefresh: true, Interval: 10}, ps.Watch)
	assert.Equal(t, []string{"Cube", "Sphere"}, ps.Bindings.Keys())

	// saving upgrades the document to the current format
	require.NoError(t, st.Save(ps))
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"version": "1.0.0"`)
	assert.NotContains(t, string(b), "refresh_interval")
}

func TestStoreSaveKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "state.json")
	st, err := NewStore(fn, config.Default())
	require.NoError(t, err)
	ps := testState()
	require.NoError(t, st.Save(ps))
	before, err := os.ReadFile(fn)
	require.NoError(t, err)

	// make the directory read-only so the temp file cannot be created
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o700) })
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	ps.Bindings.Add("Torus")
	err = st.Save(ps)
	assert.True(t, report.IsKind(err, report.IOError))
	after, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("state.ini", config.Default())
	assert.True(t, report.IsKind(err, report.ConfigError))
}
