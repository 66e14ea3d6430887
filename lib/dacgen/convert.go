// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dacgen

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/asset/ir"
)

// Partial is one converted asset before header assembly: the derived
// ID and the IR payload. Most definitions convert to exactly one
// partial; a converter may emit more when a single source expands
// into several assets.
type Partial struct {
	ID asset.ID
	IR ir.IR
}

// Converter turns one parsed definition into IR. Converters own all
// type-specific interpretation; the pipeline core only frames bytes,
// hashes, compresses, and writes. A custom converter registered for a
// type replaces the default for every definition of that type.
type Converter func(file *UserFile, resolver *Resolver) ([]Partial, error)

// defaultConverters maps every built-in asset type to its converter.
func defaultConverters() map[asset.Type]Converter {
	return map[asset.Type]Converter{
		asset.TypeShader:      convertShader,
		asset.TypeTexture:     convertTexture,
		asset.TypeTextureCube: convertTextureCube,
		asset.TypeAudio:       convertAudio,
		asset.TypeMesh:        convertMesh,
		asset.TypeMaterial:    convertMaterial,
		asset.TypeDictionary:  convertDictionary,
		asset.TypeBlob:        convertBlob,
		asset.TypeNotes:       convertNotes,
	}
}

func properties[T Properties](file *UserFile) (T, error) {
	typed, ok := file.Asset.Properties.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("definition properties are %T, not %T",
			file.Asset.Properties, zero)
	}
	return typed, nil
}

func convertShader(file *UserFile, resolver *Resolver) ([]Partial, error) {
	user, err := properties[*UserShader](file)
	if err != nil {
		return nil, err
	}
	if len(user.Sources) == 0 {
		return nil, fmt.Errorf("shader has no sources")
	}

	sources := make(map[ir.ShaderStage][]byte, len(user.Sources))
	for stage, origin := range user.Sources {
		if origin.Code != "" && origin.Source != "" {
			return nil, fmt.Errorf("shader stage %s has both inline code and a source file", stage)
		}
		if origin.Source != "" {
			data, err := resolver.Read(origin.Source)
			if err != nil {
				return nil, err
			}
			sources[stage] = data
			continue
		}
		sources[stage] = []byte(origin.Code)
	}

	return []Partial{{
		ID: NormalizeName(file.Path),
		IR: &ir.Shader{
			CompileOptions: user.CompileOptions,
			Sources:        sources,
		},
	}}, nil
}

func convertTexture(file *UserFile, resolver *Resolver) ([]Partial, error) {
	user, err := properties[*UserTexture](file)
	if err != nil {
		return nil, err
	}
	data, err := resolver.Read(user.Source)
	if err != nil {
		return nil, err
	}

	texture := &ir.Texture{
		Data:        data,
		Width:       user.Width,
		Height:      user.Height,
		PixelFormat: user.PixelFormat,
		UseMipmaps:  user.UseMipmaps,
		MinFilter:   user.MinFilter,
		MagFilter:   user.MagFilter,
		WrapS:       user.WrapS,
		WrapT:       user.WrapT,
	}
	if err := texture.Validate(); err != nil {
		return nil, err
	}

	return []Partial{{ID: NormalizeName(file.Path), IR: texture}}, nil
}

func convertTextureCube(file *UserFile, resolver *Resolver) ([]Partial, error) {
	user, err := properties[*UserTextureCube](file)
	if err != nil {
		return nil, err
	}

	cube := &ir.TextureCube{
		Size:        user.Size,
		PixelFormat: user.PixelFormat,
		UseMipmaps:  user.UseMipmaps,
		MinFilter:   user.MinFilter,
		MagFilter:   user.MagFilter,
		WrapS:       user.WrapS,
		WrapT:       user.WrapT,
		WrapR:       user.WrapR,
	}
	for face, ref := range user.Faces {
		data, err := resolver.Read(ref)
		if err != nil {
			return nil, fmt.Errorf("cube map face %d: %w", face, err)
		}
		cube.Faces[face] = data
	}
	if err := cube.Validate(); err != nil {
		return nil, err
	}

	return []Partial{{ID: NormalizeName(file.Path), IR: cube}}, nil
}

// convertAudio frames raw little-endian float32 samples. Decoding
// compressed audio formats is out of scope for the pipeline; authors
// ship raw PCM and declare its shape.
func convertAudio(file *UserFile, resolver *Resolver) ([]Partial, error) {
	user, err := properties[*UserAudio](file)
	if err != nil {
		return nil, err
	}
	if user.Channels == 0 {
		return nil, fmt.Errorf("audio channel count is zero")
	}

	data, err := resolver.Read(user.Source)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("audio source is %d bytes, not a whole number of float32 samples", len(data))
	}
	sampleCount := len(data) / 4
	if sampleCount%int(user.Channels) != 0 {
		return nil, fmt.Errorf("audio has %d samples, not divisible by %d channels",
			sampleCount, user.Channels)
	}

	samples := make([]float32, sampleCount)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		samples[i] = math.Float32frombits(bits)
	}

	return []Partial{{
		ID: NormalizeName(file.Path),
		IR: &ir.Audio{
			Data:       samples,
			SampleRate: user.SampleRate,
			Channels:   user.Channels,
			Length:     sampleCount / int(user.Channels),
		},
	}}, nil
}

func convertMesh(file *UserFile, resolver *Resolver) ([]Partial, error) {
	user, err := properties[*UserMesh](file)
	if err != nil {
		return nil, err
	}
	if user.VertexStride == 0 {
		return nil, fmt.Errorf("mesh vertex stride is zero")
	}

	vertices, err := resolver.Read(user.Vertices)
	if err != nil {
		return nil, err
	}
	if len(vertices)%int(user.VertexStride) != 0 {
		return nil, fmt.Errorf("mesh vertex data is %d bytes, not divisible by stride %d",
			len(vertices), user.VertexStride)
	}

	var indices []byte
	if user.Indices != "" {
		if user.IndexSize != 2 && user.IndexSize != 4 {
			return nil, fmt.Errorf("mesh index size %d, want 2 or 4", user.IndexSize)
		}
		indices, err = resolver.Read(user.Indices)
		if err != nil {
			return nil, err
		}
		if len(indices)%int(user.IndexSize) != 0 {
			return nil, fmt.Errorf("mesh index data is %d bytes, not divisible by index size %d",
				len(indices), user.IndexSize)
		}
	}

	mesh := &ir.Mesh{
		Vertices:     vertices,
		Indices:      indices,
		VertexStride: user.VertexStride,
		Material:     user.Material,
	}
	if indices != nil {
		mesh.IndexSize = user.IndexSize
	}

	return []Partial{{ID: NormalizeName(file.Path), IR: mesh}}, nil
}

func convertMaterial(file *UserFile, _ *Resolver) ([]Partial, error) {
	user, err := properties[*UserMaterial](file)
	if err != nil {
		return nil, err
	}

	return []Partial{{
		ID: NormalizeName(file.Path),
		IR: &ir.Material{
			BaseColor:        user.BaseColor,
			Metallic:         user.Metallic,
			Roughness:        user.Roughness,
			BaseColorTexture: user.BaseColorTexture,
			NormalTexture:    user.NormalTexture,
			MetallicTexture:  user.MetallicTexture,
			Shader:           user.Shader,
		},
	}}, nil
}

func convertDictionary(file *UserFile, _ *Resolver) ([]Partial, error) {
	user, err := properties[*UserDictionary](file)
	if err != nil {
		return nil, err
	}

	return []Partial{{
		ID: NormalizeName(file.Path),
		IR: &ir.Dictionary{Entries: user.Entries},
	}}, nil
}

func convertBlob(file *UserFile, resolver *Resolver) ([]Partial, error) {
	user, err := properties[*UserBlob](file)
	if err != nil {
		return nil, err
	}
	data, err := resolver.Read(user.Source)
	if err != nil {
		return nil, err
	}

	return []Partial{{
		ID: NormalizeName(file.Path),
		IR: &ir.Blob{Data: data},
	}}, nil
}

func convertNotes(file *UserFile, resolver *Resolver) ([]Partial, error) {
	user, err := properties[*UserNotes](file)
	if err != nil {
		return nil, err
	}

	text := user.Text
	if user.Source != "" {
		if text != "" {
			return nil, fmt.Errorf("notes have both inline text and a source file")
		}
		data, err := resolver.Read(user.Source)
		if err != nil {
			return nil, err
		}
		text = string(data)
	}

	return []Partial{{
		ID: NormalizeName(file.Path),
		IR: &ir.Notes{Text: text},
	}}, nil
}
