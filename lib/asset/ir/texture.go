// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import (
	"fmt"

	"github.com/dawn-engine/dawn/lib/asset"
)

// PixelFormat describes the channel layout and component type of
// texture data. The set mirrors what the renderer's upload path
// accepts; the converter is responsible for getting source images
// into one of these.
type PixelFormat string

const (
	PixelRGBA8  PixelFormat = "rgba8"
	PixelRGB8   PixelFormat = "rgb8"
	PixelSRGBA8 PixelFormat = "srgba8"
	PixelSRGB8  PixelFormat = "srgb8"
	PixelR8     PixelFormat = "r8"
	PixelRG8    PixelFormat = "rg8"
	PixelR16    PixelFormat = "r16"
	PixelRGBA16 PixelFormat = "rgba16"
	PixelR32F   PixelFormat = "r32f"
	PixelRG32F  PixelFormat = "rg32f"
	PixelRGBA32 PixelFormat = "rgba32f"
)

// bytesPerPixel returns the byte stride of one pixel, or 0 for
// formats the accounting does not know (the data length is then used
// directly).
func (f PixelFormat) bytesPerPixel() int {
	switch f {
	case PixelR8:
		return 1
	case PixelRG8, PixelR16:
		return 2
	case PixelRGB8, PixelSRGB8:
		return 3
	case PixelRGBA8, PixelSRGBA8, PixelR32F:
		return 4
	case PixelRG32F:
		return 8
	case PixelRGBA16:
		return 8
	case PixelRGBA32:
		return 16
	default:
		return 0
	}
}

// Filter selects the sampling filter.
type Filter string

const (
	FilterNearest Filter = "nearest"
	FilterLinear  Filter = "linear"
)

// Wrap selects the out-of-range texture coordinate behavior.
type Wrap string

const (
	WrapClampToEdge    Wrap = "clamp_to_edge"
	WrapClampToBorder  Wrap = "clamp_to_border"
	WrapRepeat         Wrap = "repeat"
	WrapMirroredRepeat Wrap = "mirrored_repeat"
)

// Texture is the IR for a 2D texture: interleaved pixel bytes in a
// GPU-friendly layout plus the sampling state the factory should bake
// into the native object.
type Texture struct {
	Data []byte `json:"data"`

	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`

	PixelFormat PixelFormat `json:"pixel_format"`
	UseMipmaps  bool        `json:"use_mipmaps,omitempty"`

	MinFilter Filter `json:"min_filter,omitempty"`
	MagFilter Filter `json:"mag_filter,omitempty"`
	WrapS     Wrap   `json:"wrap_s,omitempty"`
	WrapT     Wrap   `json:"wrap_t,omitempty"`
}

func (*Texture) Kind() asset.Type { return asset.TypeTexture }

func (t *Texture) MemoryUsage() asset.MemoryUsage {
	// Uploaded textures keep roughly the same footprint on the GPU
	// (mipmaps add a third, which the factory reports after upload).
	return asset.MemoryUsage{CPU: len(t.Data)}
}

// Validate checks that the pixel data length matches the declared
// dimensions and format. Formats with unknown stride skip the length
// check.
func (t *Texture) Validate() error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("texture dimensions %dx%d invalid", t.Width, t.Height)
	}
	stride := t.PixelFormat.bytesPerPixel()
	if stride == 0 {
		return nil
	}
	want := int(t.Width) * int(t.Height) * stride
	if len(t.Data) != want {
		return fmt.Errorf("texture data is %d bytes, %dx%d %s needs %d",
			len(t.Data), t.Width, t.Height, t.PixelFormat, want)
	}
	return nil
}

// CubeFace indexes one face of a cube map, in the conventional
// +X, -X, +Y, -Y, +Z, -Z order.
type CubeFace uint8

const (
	FacePositiveX CubeFace = iota
	FaceNegativeX
	FacePositiveY
	FaceNegativeY
	FacePositiveZ
	FaceNegativeZ
	cubeFaceCount
)

// TextureCube is the IR for a cube map: six square faces sharing one
// pixel format and edge size.
type TextureCube struct {
	// Faces holds pixel bytes for each face, indexed by CubeFace.
	// All six must be present and the same length.
	Faces [6][]byte `json:"faces"`

	Size        uint32      `json:"size"`
	PixelFormat PixelFormat `json:"pixel_format"`
	UseMipmaps  bool        `json:"use_mipmaps,omitempty"`

	MinFilter Filter `json:"min_filter,omitempty"`
	MagFilter Filter `json:"mag_filter,omitempty"`
	WrapS     Wrap   `json:"wrap_s,omitempty"`
	WrapT     Wrap   `json:"wrap_t,omitempty"`
	WrapR     Wrap   `json:"wrap_r,omitempty"`
}

func (*TextureCube) Kind() asset.Type { return asset.TypeTextureCube }

func (t *TextureCube) MemoryUsage() asset.MemoryUsage {
	total := 0
	for _, face := range t.Faces {
		total += len(face)
	}
	return asset.MemoryUsage{CPU: total}
}

// Validate checks that every face is present and sized for the
// declared edge length and format.
func (t *TextureCube) Validate() error {
	if t.Size == 0 {
		return fmt.Errorf("cube map size %d invalid", t.Size)
	}
	stride := t.PixelFormat.bytesPerPixel()
	for face, data := range t.Faces {
		if len(data) == 0 {
			return fmt.Errorf("cube map face %d is empty", face)
		}
		if stride == 0 {
			continue
		}
		want := int(t.Size) * int(t.Size) * stride
		if len(data) != want {
			return fmt.Errorf("cube map face %d is %d bytes, %dx%d %s needs %d",
				face, len(data), t.Size, t.Size, t.PixelFormat, want)
		}
	}
	return nil
}
