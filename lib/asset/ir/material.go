// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import "github.com/dawn-engine/dawn/lib/asset"

// Material is the IR for a surface description: scalar parameters
// plus references to texture assets by ID. The referenced textures
// are dependencies in the material's header, so the query pool loads
// them before the material's own factory runs.
type Material struct {
	// BaseColor is an RGBA multiplier applied to the base color
	// texture (or used directly when no texture is referenced).
	BaseColor [4]float32 `json:"base_color"`

	Metallic  float32 `json:"metallic"`
	Roughness float32 `json:"roughness"`

	BaseColorTexture asset.ID `json:"base_color_texture,omitempty"`
	NormalTexture    asset.ID `json:"normal_texture,omitempty"`
	MetallicTexture  asset.ID `json:"metallic_texture,omitempty"`

	// Shader names the shader program this material binds to.
	Shader asset.ID `json:"shader,omitempty"`
}

func (*Material) Kind() asset.Type { return asset.TypeMaterial }

func (m *Material) MemoryUsage() asset.MemoryUsage {
	// Scalars only; referenced textures are counted by the registry
	// through the dependency chain.
	total := len(m.BaseColorTexture) + len(m.NormalTexture) +
		len(m.MetallicTexture) + len(m.Shader)
	return asset.MemoryUsage{CPU: total + 6*4}
}

// References returns the asset IDs this material depends on, in
// declaration order, skipping empty slots.
func (m *Material) References() []asset.ID {
	var refs []asset.ID
	for _, id := range []asset.ID{
		m.BaseColorTexture, m.NormalTexture, m.MetallicTexture, m.Shader,
	} {
		if id != "" {
			refs = append(refs, id)
		}
	}
	return refs
}
