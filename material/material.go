// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package material builds the per-object appearance that shows a
// drawing on a scene object, and binds it through a [Host].
//
// Every managed object gets its own [Material] with two branches:
// a flat white surface, and a surface sampling the object's texture.
// The Mix selector chooses between them: 0 shows the flat branch,
// 1 shows the texture.
package material

import (
	"fmt"
	"image/color"
)

// Branch is the branch of a [Material] currently shown.
type Branch int32

const (
	// Flat is the neutral white surface shown when no texture is set.
	Flat Branch = iota

	// Textured is the surface sampling the texture.
	Textured
)

func (b Branch) String() string {
	switch b {
	case Flat:
		return "Flat"
	case Textured:
		return "Textured"
	}
	return fmt.Sprintf("Branch(%d)", int32(b))
}

// White is the color of the flat branch.
var White = color.RGBA{255, 255, 255, 255}

// Material is the appearance of one object.
// Materials are object-scoped: they are never shared between objects.
type Material struct {

	// Name is the material name, Mat_ followed by the object identifier.
	Name string

	// Object is the identifier of the object using this material.
	Object string

	// Color is the color of the flat branch.
	Color color.RGBA

	// TextureName is the name of the texture of the textured branch,
	// T_ followed by the object identifier.
	TextureName string

	// Texture is the texture sampled by the textured branch.
	// It is nil when the flat branch is shown.
	Texture Texture

	// Mix is the branch selector: 0 = flat, 1 = textured.
	Mix float32
}

// NewMaterial returns a new material for the given object,
// showing the flat branch.
func NewMaterial(id string) *Material {
	mt := &Material{Name: "Mat_" + id, Object: id, TextureName: "T_" + id}
	mt.Defaults()
	return mt
}

// Defaults sets the flat white appearance.
func (mt *Material) Defaults() {
	mt.Color = White
	mt.NoTexture()
}

// NoTexture resets any texture setting that might have been set,
// selecting the flat branch.
func (mt *Material) NoTexture() {
	mt.Texture = nil
	mt.Mix = 0
}

// SetTexture sets material to use given texture, selecting the textured
// branch. A nil texture is the same as [Material.NoTexture].
func (mt *Material) SetTexture(tex Texture) *Material {
	if tex == nil {
		mt.NoTexture()
		return mt
	}
	mt.Texture = tex
	mt.Mix = 1
	return mt
}

// Branch returns the branch currently shown. Without a texture
// the flat branch is always shown.
func (mt *Material) Branch() Branch {
	if mt.Texture == nil || mt.Mix < 0.5 {
		return Flat
	}
	return Textured
}

func (mt *Material) String() string {
	if mt.Branch() == Flat {
		return fmt.Sprintf("%s [%s]", mt.Name, Flat)
	}
	return fmt.Sprintf("%s [%s %s]", mt.Name, Textured, mt.Texture.AsTextureBase().Name)
}
