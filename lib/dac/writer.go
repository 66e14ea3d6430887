// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dac

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/codec"
	"github.com/dawn-engine/dawn/lib/compress"
	irpkg "github.com/dawn-engine/dawn/lib/asset/ir"
)

// EncodeAsset serializes and compresses one IR value into the
// BinaryAsset form stored in caches and containers. The compression
// decision (keep brotli output or fall back to none) is made here so
// TOC records always describe the bytes actually stored.
func EncodeAsset(header asset.Header, value irpkg.IR, level compress.Level) (BinaryAsset, error) {
	serialized, err := irpkg.Marshal(value)
	if err != nil {
		return BinaryAsset{}, fmt.Errorf("serializing asset %s: %w", header.ID, err)
	}

	encoded, mode, err := compress.Encode(serialized, level)
	if err != nil {
		return BinaryAsset{}, fmt.Errorf("compressing asset %s: %w", header.ID, err)
	}

	return BinaryAsset{Header: header, Raw: encoded, Compression: mode}, nil
}

// Write serializes a complete container to w: TOC segment, Manifest
// segment, then the Data segment holding every binary asset's payload
// at the offsets the TOC records. Asset order within the Data segment
// follows the binaries slice; only the TOC gives that order meaning.
func Write(w io.Writer, manifest Manifest, binaries []BinaryAsset) error {
	toc := make(TOC, len(binaries))
	var offset uint64
	for _, entry := range binaries {
		if _, exists := toc[entry.Header.ID]; exists {
			return fmt.Errorf("dac: duplicate asset id %s", entry.Header.ID)
		}
		if entry.Header.ID == ManifestID {
			return fmt.Errorf("dac: asset id %s is reserved", ManifestID)
		}

		length := uint64(len(entry.Raw))
		if offset+length > math.MaxUint32 {
			return fmt.Errorf("%w: data segment at asset %s", ErrSizeOverflow, entry.Header.ID)
		}
		toc[entry.Header.ID] = Record{
			Offset:      uint32(offset),
			Length:      uint32(length),
			Compression: entry.Compression,
		}
		offset += length
	}

	tocBytes, err := codec.Marshal(toc)
	if err != nil {
		return fmt.Errorf("dac: serializing TOC: %w", err)
	}
	manifestBytes, err := codec.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("dac: serializing manifest: %w", err)
	}

	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("dac: writing magic: %w", err)
	}

	if err := writeSegment(w, segmentTOC, tocBytes); err != nil {
		return err
	}
	if err := writeSegment(w, segmentManifest, manifestBytes); err != nil {
		return err
	}

	// The Data segment is framed like any other, then the payloads
	// are streamed without further per-asset framing: the TOC is the
	// only index into it.
	if err := writeSegmentHeader(w, segmentData, offset); err != nil {
		return err
	}
	for _, entry := range binaries {
		if _, err := w.Write(entry.Raw); err != nil {
			return fmt.Errorf("dac: writing data for asset %s: %w", entry.Header.ID, err)
		}
	}

	return nil
}

func writeSegmentHeader(w io.Writer, segmentType byte, length uint64) error {
	if length > math.MaxUint32 {
		return fmt.Errorf("%w: segment %#x is %d bytes", ErrSizeOverflow, segmentType, length)
	}

	var header [segmentHeaderSize]byte
	header[0] = segmentType
	binary.LittleEndian.PutUint32(header[1:], uint32(length))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("dac: writing segment %#x header: %w", segmentType, err)
	}
	return nil
}

func writeSegment(w io.Writer, segmentType byte, payload []byte) error {
	if err := writeSegmentHeader(w, segmentType, uint64(len(payload))); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("dac: writing segment %#x payload: %w", segmentType, err)
	}
	return nil
}
