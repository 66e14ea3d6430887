// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import "github.com/dawn-engine/dawn/lib/asset"

// EntryKind tags one dictionary value.
type EntryKind string

const (
	EntryString EntryKind = "string"
	EntryInt    EntryKind = "int"
	EntryUint   EntryKind = "uint"
	EntryFloat  EntryKind = "float"
	EntryBool   EntryKind = "bool"
	EntryMap    EntryKind = "map"
	EntryArray  EntryKind = "array"
	EntryVec2   EntryKind = "vec2"
	EntryVec3   EntryKind = "vec3"
	EntryVec4   EntryKind = "vec4"
	EntryMat3   EntryKind = "mat3"
	EntryMat4   EntryKind = "mat4"
)

// Entry is one value in a dictionary tree. Exactly the field selected
// by Kind is meaningful; the rest stay at their zero values and are
// omitted from the encoded form.
type Entry struct {
	Kind EntryKind `json:"kind"`

	String string  `json:"string,omitempty"`
	Int    int64   `json:"int,omitempty"`
	Uint   uint64  `json:"uint,omitempty"`
	Float  float32 `json:"float,omitempty"`
	Bool   bool    `json:"bool,omitempty"`

	Map   map[string]Entry `json:"map,omitempty"`
	Array []Entry          `json:"array,omitempty"`

	// Vector holds vec2/vec3/vec4 components or a row-major mat3
	// (9 values) / mat4 (16 values).
	Vector []float32 `json:"vector,omitempty"`
}

// memoryUsage walks the entry tree. Dictionaries are authored data,
// small by construction; recursion depth is bounded by authoring
// tools, not enforced here.
func (e *Entry) memoryUsage() int {
	total := len(e.String) + len(e.Vector)*4
	for key := range e.Map {
		total += len(key)
	}
	for _, child := range e.Map {
		total += child.memoryUsage()
	}
	for i := range e.Array {
		total += e.Array[i].memoryUsage()
	}
	return total
}

// Dictionary is the IR for structured key/value configuration data
// shipped as an asset.
type Dictionary struct {
	Entries map[string]Entry `json:"entries,omitempty"`
}

func (*Dictionary) Kind() asset.Type { return asset.TypeDictionary }

func (d *Dictionary) MemoryUsage() asset.MemoryUsage {
	total := 0
	for key := range d.Entries {
		total += len(key)
	}
	for _, entry := range d.Entries {
		total += entry.memoryUsage()
	}
	return asset.MemoryUsage{CPU: total}
}
