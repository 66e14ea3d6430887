// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import "github.com/dawn-engine/dawn/lib/asset"

// Mesh is the IR for geometry: raw vertex and index buffers plus the
// layout metadata the factory needs to describe them to the GPU.
// Vertex data is already interleaved by the converter.
type Mesh struct {
	Vertices []byte `json:"vertices"`
	Indices  []byte `json:"indices,omitempty"`

	// VertexStride is the byte distance between consecutive vertices.
	VertexStride uint32 `json:"vertex_stride"`

	// IndexSize is 2 or 4 bytes per index; 0 when the mesh is not
	// indexed.
	IndexSize uint8 `json:"index_size,omitempty"`

	// Material optionally names the material asset this mesh was
	// authored with. Carried as a dependency in the header as well.
	Material asset.ID `json:"material,omitempty"`
}

func (*Mesh) Kind() asset.Type { return asset.TypeMesh }

func (m *Mesh) MemoryUsage() asset.MemoryUsage {
	return asset.MemoryUsage{CPU: len(m.Vertices) + len(m.Indices)}
}
