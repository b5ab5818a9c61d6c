// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package material

import (
	"fmt"
	"slices"

	"github.com/tlahitte/karamove-texture-drawing/report"
)

// Host is the scene collaborator that owns the objects.
// Objects are referenced by identifier only and looked up at call time.
type Host interface {
	// HasObject reports whether the object exists in the scene.
	HasObject(id string) bool

	// SetMaterial attaches the material to the object, or updates
	// it if already attached. An error means the appearance system
	// rejected the update.
	SetMaterial(id string, mt *Material) error

	// RemoveMaterial detaches the material of the object, if any.
	RemoveMaterial(id string)
}

// Binder keeps exactly one [Material] per managed object and keeps
// the host in sync with it. It is not safe for concurrent use: all
// calls must come from the single context that owns the scene.
type Binder struct {
	Host Host

	// MaxTextureSize is passed on to loaded textures.
	MaxTextureSize int

	mats map[string]*Material
}

// NewBinder returns a new binder for the given host.
func NewBinder(host Host, maxTextureSize int) *Binder {
	return &Binder{Host: host, MaxTextureSize: maxTextureSize, mats: map[string]*Material{}}
}

// Appearance returns the material of the object, or nil if not managed.
func (bd *Binder) Appearance(id string) *Material {
	return bd.mats[id]
}

// Objects returns the identifiers of the objects with a material, sorted.
func (bd *Binder) Objects() []string {
	ids := make([]string, 0, len(bd.mats))
	for id := range bd.mats {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Apply shows the given texture on the object, or the flat branch if tex
// is nil. Applying the texture already shown is a no-op. If the host
// rejects the update, the material is left as it was and a BindError
// is returned.
func (bd *Binder) Apply(id string, tex *TextureFile) error {
	fail := func(err error) *report.Error {
		return report.New(report.BindError, "apply", err).WithObject(id)
	}
	if !bd.Host.HasObject(id) {
		return fail(fmt.Errorf("object %q is not in the scene", id))
	}
	mt, has := bd.mats[id]
	if !has {
		mt = NewMaterial(id)
	}
	if tex != nil {
		tex.Name = mt.TextureName
	}
	if has {
		cur, _ := mt.Texture.(*TextureFile)
		switch {
		case tex == nil && mt.Branch() == Flat:
			return nil
		case tex != nil && tex.Same(cur) && mt.Branch() == Textured:
			return nil
		}
	}
	if tex != nil {
		if tex.MaxSize == 0 {
			tex.MaxSize = bd.MaxTextureSize
		}
		if err := tex.Load(); err != nil {
			return fail(err).WithFile(tex.File)
		}
	}
	prev := *mt
	mt.SetTexture(textureOrNil(tex))
	if err := bd.Host.SetMaterial(id, mt); err != nil {
		*mt = prev
		return fail(err)
	}
	bd.mats[id] = mt
	return nil
}

// textureOrNil keeps a nil *TextureFile from becoming a non-nil [Texture].
func textureOrNil(tex *TextureFile) Texture {
	if tex == nil {
		return nil
	}
	return tex
}

// Release detaches and forgets the material of the object.
// Other objects are not affected. Releasing an unmanaged object is a no-op.
func (bd *Binder) Release(id string) {
	if _, has := bd.mats[id]; !has {
		return
	}
	bd.Host.RemoveMaterial(id)
	delete(bd.mats, id)
}

// Reconcile releases the material of every object not in ids,
// so that exactly the given objects remain managed.
// It returns the released identifiers.
func (bd *Binder) Reconcile(ids []string) []string {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	var released []string
	for _, id := range bd.Objects() {
		if !keep[id] {
			bd.Release(id)
			released = append(released, id)
		}
	}
	return released
}
