// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import (
	"fmt"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/codec"
)

// IR is the normalized, engine-native description of an asset's
// content, independent of its authoring format. The set of
// implementations is closed: exactly one per asset.Type.
//
// MemoryUsage returns the resident byte footprint of the IR itself,
// including owned buffers. Referenced sub-assets are accounted by the
// registry walking header dependencies (acyclic by contract), not by
// the IR.
type IR interface {
	Kind() asset.Type
	MemoryUsage() asset.MemoryUsage
}

// envelope is the serialized form of an IR value: the kind tag plus
// the variant payload. The tag lets the reader pick the concrete
// decode target and cross-check it against the asset's declared type.
type envelope struct {
	Kind    asset.Type       `json:"kind"`
	Payload codec.RawMessage `json:"payload,omitempty"`
}

// Marshal encodes an IR value to its container/cache byte form.
func Marshal(value IR) ([]byte, error) {
	var payload codec.RawMessage
	if value.Kind() != asset.TypeUnknown {
		encoded, err := codec.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s IR: %w", value.Kind(), err)
		}
		payload = encoded
	}
	return codec.Marshal(envelope{Kind: value.Kind(), Payload: payload})
}

// Unmarshal decodes IR bytes produced by Marshal. The want type is
// the asset's declared type from its header; a kind tag that does not
// match is an error, never a silent coercion.
func Unmarshal(data []byte, want asset.Type) (IR, error) {
	var outer envelope
	if err := codec.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("decoding IR envelope: %w", err)
	}
	if outer.Kind != want {
		return nil, fmt.Errorf("IR kind %s does not match declared asset type %s", outer.Kind, want)
	}

	value := newByKind(outer.Kind)
	if value == nil {
		return nil, fmt.Errorf("no IR variant for asset type %s", outer.Kind)
	}
	if outer.Kind == asset.TypeUnknown {
		return value, nil
	}
	if err := codec.Unmarshal(outer.Payload, value); err != nil {
		return nil, fmt.Errorf("decoding %s IR payload: %w", outer.Kind, err)
	}
	return value, nil
}

// newByKind returns a zero IR value of the concrete variant for the
// kind, or nil for kinds outside the closed set.
func newByKind(kind asset.Type) IR {
	switch kind {
	case asset.TypeUnknown:
		return &Unknown{}
	case asset.TypeShader:
		return &Shader{}
	case asset.TypeAudio:
		return &Audio{}
	case asset.TypeTexture:
		return &Texture{}
	case asset.TypeNotes:
		return &Notes{}
	case asset.TypeMesh:
		return &Mesh{}
	case asset.TypeMaterial:
		return &Material{}
	case asset.TypeBlob:
		return &Blob{}
	case asset.TypeDictionary:
		return &Dictionary{}
	case asset.TypeTextureCube:
		return &TextureCube{}
	default:
		return nil
	}
}

// Unknown is the placeholder variant for assets whose type the
// pipeline does not recognize. It carries no payload.
type Unknown struct{}

func (*Unknown) Kind() asset.Type { return asset.TypeUnknown }

func (*Unknown) MemoryUsage() asset.MemoryUsage { return asset.MemoryUsage{} }
