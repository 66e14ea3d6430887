// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"

	"github.com/dawn-engine/dawn/lib/checksum"
)

// ID is the opaque asset identifier, unique within a container. It is
// the primary key everywhere: TOC records, registry entries, factory
// messages, and query tracking all key on ID.
type ID string

func (id ID) String() string {
	return string(id)
}

// Type is the discriminated asset kind. It selects both the IR decode
// path on read and the factory that constructs the native object at
// runtime.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeShader
	TypeAudio
	TypeTexture
	TypeNotes
	TypeMesh
	TypeMaterial
	TypeBlob
	TypeDictionary
	TypeTextureCube
)

var typeNames = map[Type]string{
	TypeUnknown:     "unknown",
	TypeShader:      "shader",
	TypeAudio:       "audio",
	TypeTexture:     "texture",
	TypeNotes:       "notes",
	TypeMesh:        "mesh",
	TypeMaterial:    "material",
	TypeBlob:        "blob",
	TypeDictionary:  "dictionary",
	TypeTextureCube: "texture_cube",
}

// String returns the configuration-facing name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ParseType parses an asset type from its string name.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown asset type: %q", name)
}

// MarshalText implements encoding.TextMarshaler so Type serializes as
// its name in manifests and user asset definitions.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Header describes one asset: identity, organizational tags, declared
// type, integrity checksum, and the IDs of assets it references.
// Headers are written into the container manifest at build time and
// carried to run time unchanged.
type Header struct {
	ID           ID                `json:"id"`
	Tags         []string          `json:"tags,omitempty"`
	Type         Type              `json:"asset_type"`
	Checksum     checksum.Checksum `json:"checksum,omitempty"`
	Dependencies []ID              `json:"dependencies,omitempty"`
}

// MemoryUsage is the resident footprint a factory reports for a
// loaded asset: bytes held in ordinary memory and bytes resident on
// the GPU (zero for CPU-only asset types).
type MemoryUsage struct {
	CPU int `json:"cpu"`
	GPU int `json:"gpu"`
}

// Add returns the element-wise sum of two usages. Used to accumulate
// a dependency chain's footprint; reference chains are acyclic, so
// the accumulation terminates.
func (u MemoryUsage) Add(other MemoryUsage) MemoryUsage {
	return MemoryUsage{CPU: u.CPU + other.CPU, GPU: u.GPU + other.GPU}
}
