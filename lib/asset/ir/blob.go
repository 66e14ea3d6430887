// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package ir

import "github.com/dawn-engine/dawn/lib/asset"

// Blob is the IR for untyped bytes: anything the engine wants inside
// a container without the pipeline understanding it.
type Blob struct {
	Data []byte `json:"data"`
}

func (*Blob) Kind() asset.Type { return asset.TypeBlob }

func (b *Blob) MemoryUsage() asset.MemoryUsage {
	return asset.MemoryUsage{CPU: len(b.Data)}
}

// Notes is the IR for human-readable text carried alongside other
// assets: design notes, attribution, level annotations.
type Notes struct {
	Text string `json:"text"`
}

func (*Notes) Kind() asset.Type { return asset.TypeNotes }

func (n *Notes) MemoryUsage() asset.MemoryUsage {
	return asset.MemoryUsage{CPU: len(n.Text)}
}
