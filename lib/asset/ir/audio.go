// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import "github.com/dawn-engine/dawn/lib/asset"

// Audio is the IR for a sound asset. Samples are always stored as
// interleaved float32 regardless of the authoring format; the
// converter normalizes on the way in so factories never see codec
// details.
type Audio struct {
	// Data holds interleaved samples, Channels per frame.
	Data []float32 `json:"data"`

	SampleRate uint32 `json:"sample_rate"`
	Channels   uint8  `json:"channels"`

	// Length is the frame count: len(Data) / Channels.
	Length int `json:"length"`
}

func (*Audio) Kind() asset.Type { return asset.TypeAudio }

func (a *Audio) MemoryUsage() asset.MemoryUsage {
	return asset.MemoryUsage{CPU: len(a.Data) * 4}
}
