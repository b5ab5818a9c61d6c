// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state

import (
	"fmt"
	"slices"
)

// Bindings is the table of [Binding]s keyed by object identifier.
// It retains the order in which objects were added (for display),
// while also providing fast lookup by identifier through an index map.
// There is at most one Binding per object identifier.
type Bindings struct {

	// Order is the list of bindings, in the order added.
	Order []Binding

	// Map is the object identifier to index mapping.
	Map map[string]int
}

// makeBindings constructs a table from a list, returning an error
// on an empty or duplicate object identifier.
func makeBindings(list []Binding) (Bindings, error) {
	bs := Bindings{Map: make(map[string]int, len(list))}
	for _, b := range list {
		if b.Object == "" {
			return Bindings{}, fmt.Errorf("binding with empty object identifier")
		}
		if bs.Has(b.Object) {
			return Bindings{}, fmt.Errorf("duplicate binding for object %q", b.Object)
		}
		bs.Set(b)
	}
	return bs, nil
}

// Init initializes the table if it isn't already.
func (bs *Bindings) Init() {
	if bs.Map == nil {
		bs.Map = make(map[string]int)
	}
}

// Len returns the number of bindings.
func (bs *Bindings) Len() int {
	if bs == nil {
		return 0
	}
	return len(bs.Order)
}

// Has reports whether the object has a binding.
func (bs *Bindings) Has(id string) bool {
	_, ok := bs.Map[id]
	return ok
}

// Get returns the binding of the object, with false if there is none.
func (bs *Bindings) Get(id string) (Binding, bool) {
	idx, ok := bs.Map[id]
	if !ok {
		return Binding{}, false
	}
	return bs.Order[idx], true
}

// Add adds an empty binding (fallback appearance) for the object
// if it has none, returning whether it was added.
func (bs *Bindings) Add(id string) bool {
	if bs.Has(id) {
		return false
	}
	bs.Set(Binding{Object: id})
	return true
}

// Set replaces the binding for b.Object at its existing position,
// or appends it if the object has none.
func (bs *Bindings) Set(b Binding) {
	bs.Init()
	if idx, ok := bs.Map[b.Object]; ok {
		bs.Order[idx] = b
		return
	}
	bs.Map[b.Object] = len(bs.Order)
	bs.Order = append(bs.Order, b)
}

// Delete removes the binding of the object, returning whether there was one.
// The index map is renumbered above the deleted item.
func (bs *Bindings) Delete(id string) bool {
	idx, ok := bs.Map[id]
	if !ok {
		return false
	}
	for o := idx + 1; o < len(bs.Order); o++ {
		bs.Map[bs.Order[o].Object] = o - 1
	}
	delete(bs.Map, id)
	bs.Order = slices.Delete(bs.Order, idx, idx+1)
	return true
}

// Keys returns the object identifiers in order.
func (bs *Bindings) Keys() []string {
	keys := make([]string, len(bs.Order))
	for i, b := range bs.Order {
		keys[i] = b.Object
	}
	return keys
}

// All returns a copy of the bindings in order.
func (bs *Bindings) All() []Binding {
	return slices.Clone(bs.Order)
}
