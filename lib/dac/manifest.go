// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dac

import (
	"fmt"
	"time"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/checksum"
)

// ReadMode records how the packer discovered asset definition files:
// a single directory level or a full recursive walk. Carried in the
// manifest as build provenance and hashed into every cache key, since
// the mode changes which files participate in a build.
type ReadMode uint8

const (
	ReadFlat ReadMode = iota
	ReadRecursive
)

// String returns the configuration-facing name of the mode.
func (m ReadMode) String() string {
	switch m {
	case ReadFlat:
		return "flat"
	case ReadRecursive:
		return "recursive"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseReadMode parses a read mode from its string name.
func ParseReadMode(name string) (ReadMode, error) {
	switch name {
	case "flat":
		return ReadFlat, nil
	case "recursive":
		return ReadRecursive, nil
	default:
		return 0, fmt.Errorf("unknown read mode: %q", name)
	}
}

// Manifest is the build provenance segment: who and what produced the
// container, when, with which settings, and the full set of asset
// headers present. Reading the manifest never touches the Data
// segment, so tooling can inspect containers cheaply.
type Manifest struct {
	// Optional authoring provenance.
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	License     string `json:"license,omitempty"`

	// Tool identity and build settings.
	Tool              string             `json:"tool"`
	ToolVersion       string             `json:"tool_version"`
	Created           time.Time          `json:"created"`
	ReadMode          ReadMode           `json:"read_mode"`
	ChecksumAlgorithm checksum.Algorithm `json:"checksum_algorithm"`

	// Headers lists every asset in the container.
	Headers []asset.Header `json:"headers"`
}

// Header returns the header for id, or an AssetNotFoundError.
func (m *Manifest) Header(id asset.ID) (asset.Header, error) {
	for _, header := range m.Headers {
		if header.ID == id {
			return header, nil
		}
	}
	return asset.Header{}, &AssetNotFoundError{ID: id}
}
