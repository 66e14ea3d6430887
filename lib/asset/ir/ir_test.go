// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import (
	"bytes"
	"testing"

	"github.com/dawn-engine/dawn/lib/asset"
)

func TestShaderRoundTrip(t *testing.T) {
	original := &Shader{
		CompileOptions: []string{"-DUSE_FOG", "-O2"},
		Sources: map[ShaderStage][]byte{
			StageVertex:   []byte("void main() { vertex(); }"),
			StageFragment: []byte("void main() { fragment(); }"),
		},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := Unmarshal(data, asset.TypeShader)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	shader, ok := decoded.(*Shader)
	if !ok {
		t.Fatalf("decoded type = %T, want *Shader", decoded)
	}
	if len(shader.CompileOptions) != 2 || shader.CompileOptions[0] != "-DUSE_FOG" {
		t.Errorf("compile options mismatch: %v", shader.CompileOptions)
	}
	if !bytes.Equal(shader.Sources[StageVertex], original.Sources[StageVertex]) {
		t.Error("vertex source mismatch")
	}
	if !bytes.Equal(shader.Sources[StageFragment], original.Sources[StageFragment]) {
		t.Error("fragment source mismatch")
	}
}

func TestUnmarshalKindMismatch(t *testing.T) {
	data, err := Marshal(&Blob{Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if _, err := Unmarshal(data, asset.TypeShader); err == nil {
		t.Fatal("Unmarshal with mismatched declared type did not fail")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00, 0x13}, asset.TypeBlob); err == nil {
		t.Fatal("Unmarshal of garbage did not fail")
	}
}

func TestUnknownRoundTrip(t *testing.T) {
	data, err := Marshal(&Unknown{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	decoded, err := Unmarshal(data, asset.TypeUnknown)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Kind() != asset.TypeUnknown {
		t.Errorf("kind = %s, want unknown", decoded.Kind())
	}
}

func TestAllVariantsRoundTrip(t *testing.T) {
	variants := []IR{
		&Shader{Sources: map[ShaderStage][]byte{StageCompute: []byte("x")}},
		&Audio{Data: []float32{0.1, -0.2, 0.3, -0.4}, SampleRate: 48000, Channels: 2, Length: 2},
		&Texture{Data: []byte{9, 9, 9, 9}, Width: 1, Height: 1, PixelFormat: PixelRGBA8},
		&Notes{Text: "level one blockout"},
		&Mesh{Vertices: []byte{1, 2, 3, 4}, VertexStride: 4},
		&Material{BaseColor: [4]float32{1, 1, 1, 1}, BaseColorTexture: "tex/wall"},
		&Blob{Data: []byte{0xde, 0xad}},
		&Dictionary{Entries: map[string]Entry{
			"speed": {Kind: EntryFloat, Float: 4.5},
			"name":  {Kind: EntryString, String: "player"},
		}},
		&TextureCube{Size: 2, PixelFormat: PixelRGB8},
	}

	for _, original := range variants {
		data, err := Marshal(original)
		if err != nil {
			t.Fatalf("Marshal(%s) failed: %v", original.Kind(), err)
		}

		decoded, err := Unmarshal(data, original.Kind())
		if err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", original.Kind(), err)
		}
		if decoded.Kind() != original.Kind() {
			t.Errorf("kind mismatch: got %s, want %s", decoded.Kind(), original.Kind())
		}
	}
}

func TestMemoryUsage(t *testing.T) {
	shader := &Shader{
		CompileOptions: []string{"-O2"},
		Sources:        map[ShaderStage][]byte{StageVertex: make([]byte, 100)},
	}
	if got := shader.MemoryUsage().CPU; got != 103 {
		t.Errorf("shader usage = %d, want 103", got)
	}

	audio := &Audio{Data: make([]float32, 10)}
	if got := audio.MemoryUsage().CPU; got != 40 {
		t.Errorf("audio usage = %d, want 40", got)
	}

	cube := &TextureCube{}
	for i := range cube.Faces {
		cube.Faces[i] = make([]byte, 16)
	}
	if got := cube.MemoryUsage().CPU; got != 96 {
		t.Errorf("cube usage = %d, want 96", got)
	}

	dict := &Dictionary{Entries: map[string]Entry{
		"ab": {Kind: EntryArray, Array: []Entry{
			{Kind: EntryString, String: "xyz"},
			{Kind: EntryVec3, Vector: []float32{1, 2, 3}},
		}},
	}}
	// "ab" (2) + "xyz" (3) + 3 floats (12).
	if got := dict.MemoryUsage().CPU; got != 17 {
		t.Errorf("dictionary usage = %d, want 17", got)
	}
}

func TestMaterialReferences(t *testing.T) {
	material := &Material{
		BaseColorTexture: "tex/base",
		Shader:           "shader/pbr",
	}
	refs := material.References()
	if len(refs) != 2 || refs[0] != "tex/base" || refs[1] != "shader/pbr" {
		t.Errorf("References = %v", refs)
	}
}
