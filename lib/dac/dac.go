// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dac

import (
	"errors"
	"fmt"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/compress"
)

// Container format constants. The layout is:
//
//	3 bytes: "DAC" magic
//	repeated segments:
//	  1 byte:  segment type
//	  4 bytes: segment length (uint32 little-endian)
//	  N bytes: segment payload
//
// Exactly one TOC segment and one Manifest segment per container.
// The Data segment is the concatenation of per-asset payloads, each
// independently compressed, addressed solely through TOC offsets.
const (
	segmentTOC      byte = 0x0
	segmentManifest byte = 0x1
	segmentData     byte = 0x2

	// segmentHeaderSize is the per-segment framing: type byte plus
	// the 4-byte length.
	segmentHeaderSize = 5
)

// magic is the 3-byte container file signature.
var magic = [3]byte{'D', 'A', 'C'}

// ManifestID is the well-known logical path of the manifest when a
// container's contents are exposed as a flat asset namespace. No real
// asset may use it.
const ManifestID asset.ID = "_manifest"

// Record locates one asset's payload within the Data segment. Offsets
// are relative to the start of the Data segment payload, not the
// file.
type Record struct {
	Offset      uint32        `json:"offset"`
	Length      uint32        `json:"length"`
	Compression compress.Mode `json:"compression"`
}

// TOC maps every asset in the container to its data record.
type TOC map[asset.ID]Record

// BinaryAsset is one converted asset ready for container writing: the
// header plus the serialized (and possibly compressed) IR payload.
// This is also the unit stored in the build cache, so a cache hit
// skips both conversion and compression.
type BinaryAsset struct {
	Header      asset.Header  `json:"header"`
	Raw         []byte        `json:"raw"`
	Compression compress.Mode `json:"compression"`
}

// Sentinel errors for structural container failures.
var (
	// ErrInvalidMagic means the file does not start with "DAC".
	ErrInvalidMagic = errors.New("dac: invalid magic bytes")

	// ErrSegmentNotFound means a required segment (TOC or Manifest)
	// is absent.
	ErrSegmentNotFound = errors.New("dac: required segment not found")

	// ErrDuplicateSegment means a segment type that must appear
	// exactly once appeared again.
	ErrDuplicateSegment = errors.New("dac: duplicate segment")

	// ErrSizeOverflow means a segment or data offset exceeds the
	// format's uint32 range.
	ErrSizeOverflow = errors.New("dac: size exceeds uint32 range")
)

// AssetNotFoundError reports a TOC lookup miss.
type AssetNotFoundError struct {
	ID asset.ID
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("dac: asset not found: %s", e.ID)
}

// IsAssetNotFound reports whether err is an AssetNotFoundError.
func IsAssetNotFound(err error) bool {
	var notFound *AssetNotFoundError
	return errors.As(err, &notFound)
}
