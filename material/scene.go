// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package material

import (
	"fmt"
	"slices"
	"sync"
)

// Scene is a minimal in-memory [Host]: a set of named objects, each
// with an optional material, and the textures those materials use.
// It is useful for headless installations and for testing.
type Scene struct {

	// Name is the name of the scene.
	Name string

	// objects holds the material of each object (nil = none attached).
	objects map[string]*Material

	// textures by name, for materials currently attached.
	textures map[string]Texture

	mu sync.Mutex
}

// NewScene returns a new empty scene.
func NewScene(name string) *Scene {
	return &Scene{Name: name, objects: map[string]*Material{}, textures: map[string]Texture{}}
}

// AddObject adds the objects of given identifiers to the scene.
func (sc *Scene) AddObject(ids ...string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, id := range ids {
		if _, has := sc.objects[id]; !has {
			sc.objects[id] = nil
		}
	}
}

// DeleteObject deletes the object from the scene, as a user of the host
// application would, without telling the engine.
func (sc *Scene) DeleteObject(id string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if mt := sc.objects[id]; mt != nil {
		delete(sc.textures, mt.TextureName)
	}
	delete(sc.objects, id)
}

func (sc *Scene) HasObject(id string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_, has := sc.objects[id]
	return has
}

func (sc *Scene) SetMaterial(id string, mt *Material) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if _, has := sc.objects[id]; !has {
		return fmt.Errorf("object %q not found in scene %q", id, sc.Name)
	}
	sc.objects[id] = mt
	if mt.Texture != nil {
		sc.textures[mt.TextureName] = mt.Texture
	} else {
		delete(sc.textures, mt.TextureName)
	}
	return nil
}

func (sc *Scene) RemoveMaterial(id string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	mt, has := sc.objects[id]
	if !has || mt == nil {
		return
	}
	delete(sc.textures, mt.TextureName)
	sc.objects[id] = nil
}

// Material returns the material attached to the object, or nil.
func (sc *Scene) Material(id string) *Material {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.objects[id]
}

// TextureList returns the names of the textures in use, sorted.
func (sc *Scene) TextureList() []string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	names := make([]string, 0, len(sc.textures))
	for nm := range sc.textures {
		names = append(names, nm)
	}
	slices.Sort(names)
	return names
}
