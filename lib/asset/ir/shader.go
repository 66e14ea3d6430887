// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import "github.com/dawn-engine/dawn/lib/asset"

// ShaderStage identifies one source unit within a shader program.
type ShaderStage string

const (
	StageVertex              ShaderStage = "vertex"
	StageFragment            ShaderStage = "fragment"
	StageGeometry            ShaderStage = "geometry"
	StageCompute             ShaderStage = "compute"
	StageTessellationControl ShaderStage = "tessellation_control"
)

// Shader is the IR for a shader program: compiler options in declared
// order plus one source blob per stage. Sources are opaque bytes —
// whether they hold GLSL text or precompiled SPIR-V is between the
// converter and the factory.
type Shader struct {
	CompileOptions []string               `json:"compile_options,omitempty"`
	Sources        map[ShaderStage][]byte `json:"sources"`
}

func (*Shader) Kind() asset.Type { return asset.TypeShader }

func (s *Shader) MemoryUsage() asset.MemoryUsage {
	total := 0
	for _, source := range s.Sources {
		total += len(source)
	}
	for _, option := range s.CompileOptions {
		total += len(option)
	}
	return asset.MemoryUsage{CPU: total}
}
