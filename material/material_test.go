// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package material

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlahitte/karamove-texture-drawing/base/iox/imagex"
	"github.com/tlahitte/karamove-texture-drawing/report"
)

// countingHost wraps a [Scene], counting updates and optionally rejecting them.
type countingHost struct {
	*Scene
	sets    int
	removes int
	reject  bool
}

func (ch *countingHost) SetMaterial(id string, mt *Material) error {
	if ch.reject {
		return errors.New("shader compilation failed")
	}
	ch.sets++
	return ch.Scene.SetMaterial(id, mt)
}

func (ch *countingHost) RemoveMaterial(id string) {
	ch.removes++
	ch.Scene.RemoveMaterial(id)
}

func newHost(ids ...string) *countingHost {
	sc := NewScene("test")
	sc.AddObject(ids...)
	return &countingHost{Scene: sc}
}

func writeTexture(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	fn := filepath.Join(t.TempDir(), "T_obj.png")
	require.NoError(t, imagex.Save(img, fn))
	return fn
}

func textureFile(t *testing.T, fn, hash string) *TextureFile {
	t.Helper()
	tx, err := NewTextureFile("", fn, hash, 0)
	require.NoError(t, err)
	return tx
}

func TestMaterialBranches(t *testing.T) {
	mt := NewMaterial("Cube")
	assert.Equal(t, "Mat_Cube", mt.Name)
	assert.Equal(t, "T_Cube", mt.TextureName)
	assert.Equal(t, Flat, mt.Branch())
	assert.Equal(t, White, mt.Color)
	assert.Equal(t, "Mat_Cube [Flat]", mt.String())

	tx := &TextureBase{Name: "T_Cube"}
	mt.SetTexture(tx)
	assert.Equal(t, Textured, mt.Branch())
	assert.Equal(t, float32(1), mt.Mix)
	assert.Equal(t, "Mat_Cube [Textured T_Cube]", mt.String())

	mt.SetTexture(nil)
	assert.Equal(t, Flat, mt.Branch())
	assert.Nil(t, mt.Texture)
	assert.Equal(t, float32(0), mt.Mix)
}

func TestApplyFallback(t *testing.T) {
	host := newHost("Cube")
	bd := NewBinder(host, 0)
	require.NoError(t, bd.Apply("Cube", nil))
	mt := host.Material("Cube")
	require.NotNil(t, mt, "a flat material is attached, never an empty appearance")
	assert.Equal(t, Flat, mt.Branch())
	assert.Same(t, mt, bd.Appearance("Cube"))
}

func TestApplyTexture(t *testing.T) {
	host := newHost("Cube")
	bd := NewBinder(host, 0)
	fn := writeTexture(t, 8, 8, color.RGBA{255, 0, 0, 255})

	require.NoError(t, bd.Apply("Cube", textureFile(t, fn, "h1")))
	mt := host.Material("Cube")
	assert.Equal(t, Textured, mt.Branch())
	assert.Equal(t, "T_Cube", mt.Texture.AsTextureBase().Name)
	require.NotNil(t, mt.Texture.Image())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, mt.Texture.Image().RGBAAt(1, 1))
	assert.Equal(t, []string{"T_Cube"}, host.TextureList())
	assert.Equal(t, 1, host.sets)
}

func TestApplyIdempotent(t *testing.T) {
	host := newHost("Cube")
	bd := NewBinder(host, 0)
	fn := writeTexture(t, 8, 8, color.RGBA{255, 0, 0, 255})

	require.NoError(t, bd.Apply("Cube", textureFile(t, fn, "h1")))
	first := host.Material("Cube")
	require.NoError(t, bd.Apply("Cube", textureFile(t, fn, "h1")))
	assert.Equal(t, 1, host.sets, "same texture again is a no-op")
	assert.Same(t, first, host.Material("Cube"), "no duplicate material")
	assert.Equal(t, []string{"Cube"}, bd.Objects())

	// same file, new content: reloaded
	require.NoError(t, bd.Apply("Cube", textureFile(t, fn, "h2")))
	assert.Equal(t, 2, host.sets)
	assert.Same(t, first, host.Material("Cube"))

	require.NoError(t, bd.Apply("Cube", nil))
	require.NoError(t, bd.Apply("Cube", nil))
	assert.Equal(t, 3, host.sets)
	assert.Equal(t, Flat, host.Material("Cube").Branch())
	assert.Empty(t, host.TextureList())
}

func TestApplyFitsTexture(t *testing.T) {
	host := newHost("Cube")
	bd := NewBinder(host, 16)
	fn := writeTexture(t, 64, 32, color.RGBA{0, 0, 255, 255})
	require.NoError(t, bd.Apply("Cube", textureFile(t, fn, "h")))
	img := host.Material("Cube").Texture.Image()
	assert.Equal(t, image.Pt(16, 8), img.Bounds().Size())
}

func TestApplyRejected(t *testing.T) {
	host := newHost("Cube")
	bd := NewBinder(host, 0)
	require.NoError(t, bd.Apply("Cube", nil))

	host.reject = true
	fn := writeTexture(t, 8, 8, color.RGBA{255, 0, 0, 255})
	err := bd.Apply("Cube", textureFile(t, fn, "h1"))
	assert.True(t, report.IsKind(err, report.BindError))
	assert.ErrorContains(t, err, "Cube")
	assert.Equal(t, Flat, bd.Appearance("Cube").Branch(), "rejected update leaves the material as it was")

	err = bd.Apply("Ghost", nil)
	assert.True(t, report.IsKind(err, report.BindError))
	assert.Nil(t, bd.Appearance("Ghost"))
}

func TestApplyUnreadableTexture(t *testing.T) {
	host := newHost("Cube")
	bd := NewBinder(host, 0)
	fn := filepath.Join(t.TempDir(), "T_Cube.png")
	require.NoError(t, os.WriteFile(fn, []byte("garbage"), 0o644))
	err := bd.Apply("Cube", textureFile(t, fn, "h"))
	assert.True(t, report.IsKind(err, report.BindError))
	assert.ErrorContains(t, err, "T_Cube.png", "the failing file is named")
	assert.Nil(t, host.Material("Cube"))
}

func TestRelease(t *testing.T) {
	host := newHost("Cube", "Sphere")
	bd := NewBinder(host, 0)
	fn := writeTexture(t, 4, 4, color.RGBA{255, 0, 0, 255})
	require.NoError(t, bd.Apply("Cube", textureFile(t, fn, "h")))
	require.NoError(t, bd.Apply("Sphere", textureFile(t, fn, "h")))

	bd.Release("Cube")
	bd.Release("Cube")
	assert.Equal(t, 1, host.removes)
	assert.Nil(t, host.Material("Cube"))
	assert.Nil(t, bd.Appearance("Cube"))
	require.NotNil(t, host.Material("Sphere"))
	assert.Equal(t, Textured, host.Material("Sphere").Branch(), "other objects are not affected")
	assert.Equal(t, []string{"T_Sphere"}, host.TextureList())
}

func TestReconcile(t *testing.T) {
	host := newHost("a", "b", "c")
	bd := NewBinder(host, 0)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, bd.Apply(id, nil))
	}
	released := bd.Reconcile([]string{"b", "z"})
	assert.Equal(t, []string{"a", "c"}, released)
	assert.Equal(t, []string{"b"}, bd.Objects())
}

func TestSceneDeleteObject(t *testing.T) {
	sc := NewScene("test")
	sc.AddObject("Cube")
	assert.True(t, sc.HasObject("Cube"))
	sc.DeleteObject("Cube")
	assert.False(t, sc.HasObject("Cube"))
	assert.Error(t, sc.SetMaterial("Cube", NewMaterial("Cube")))
}
