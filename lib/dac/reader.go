// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dac

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/codec"
	"github.com/dawn-engine/dawn/lib/compress"
	irpkg "github.com/dawn-engine/dawn/lib/asset/ir"
)

// segmentInfo locates one segment's payload within the file.
type segmentInfo struct {
	offset int64
	length int64
}

// Reader provides random access to a DAC container. Opening a reader
// scans only the segment framing; the manifest and TOC are decoded on
// first use, and asset payloads are read individually, so reading one
// asset never requires decoding any other asset's bytes.
//
// Reader is not safe for concurrent use: it shares one seek position.
type Reader struct {
	source   io.ReadSeeker
	segments map[byte]segmentInfo

	toc      TOC
	manifest *Manifest
}

// Open scans the container's segment structure from source. The
// source must be positioned anywhere (Open seeks to the start).
// Structural faults — bad magic, truncated framing, duplicated
// TOC/Manifest, missing required segments — are reported here, never
// deferred or guessed around.
func Open(source io.ReadSeeker) (*Reader, error) {
	size, err := source.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("dac: sizing container: %w", err)
	}
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("dac: rewinding container: %w", err)
	}

	var fileMagic [3]byte
	if _, err := io.ReadFull(source, fileMagic[:]); err != nil {
		return nil, fmt.Errorf("dac: reading magic: %w", err)
	}
	if fileMagic != magic {
		return nil, ErrInvalidMagic
	}

	segments := make(map[byte]segmentInfo)
	position := int64(len(magic))
	for position < size {
		var header [segmentHeaderSize]byte
		if _, err := io.ReadFull(source, header[:]); err != nil {
			return nil, fmt.Errorf("dac: reading segment header at offset %d: %w", position, err)
		}
		segmentType := header[0]
		length := int64(binary.LittleEndian.Uint32(header[1:]))

		payloadOffset := position + segmentHeaderSize
		if payloadOffset+length > size {
			return nil, fmt.Errorf("dac: segment %#x at offset %d is truncated: declares %d bytes, %d remain",
				segmentType, position, length, size-payloadOffset)
		}

		if _, duplicate := segments[segmentType]; duplicate {
			return nil, fmt.Errorf("%w: segment %#x", ErrDuplicateSegment, segmentType)
		}
		segments[segmentType] = segmentInfo{offset: payloadOffset, length: length}

		position = payloadOffset + length
		if _, err := source.Seek(position, io.SeekStart); err != nil {
			return nil, fmt.Errorf("dac: seeking past segment %#x: %w", segmentType, err)
		}
	}

	for _, required := range []byte{segmentTOC, segmentManifest, segmentData} {
		if _, ok := segments[required]; !ok {
			return nil, fmt.Errorf("%w: segment %#x", ErrSegmentNotFound, required)
		}
	}

	return &Reader{source: source, segments: segments}, nil
}

// readSegment reads one segment's full payload.
func (r *Reader) readSegment(segmentType byte) ([]byte, error) {
	info, ok := r.segments[segmentType]
	if !ok {
		return nil, fmt.Errorf("%w: segment %#x", ErrSegmentNotFound, segmentType)
	}

	if _, err := r.source.Seek(info.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("dac: seeking to segment %#x: %w", segmentType, err)
	}
	payload := make([]byte, info.length)
	if _, err := io.ReadFull(r.source, payload); err != nil {
		return nil, fmt.Errorf("dac: reading segment %#x: %w", segmentType, err)
	}
	return payload, nil
}

// Manifest decodes and returns the manifest segment. The result is
// cached; the Data segment is never touched.
func (r *Reader) Manifest() (*Manifest, error) {
	if r.manifest != nil {
		return r.manifest, nil
	}

	payload, err := r.readSegment(segmentManifest)
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := codec.Unmarshal(payload, &manifest); err != nil {
		return nil, fmt.Errorf("dac: decoding manifest: %w", err)
	}
	r.manifest = &manifest
	return r.manifest, nil
}

// TOC decodes and returns the table of contents. The result is
// cached.
func (r *Reader) TOC() (TOC, error) {
	if r.toc != nil {
		return r.toc, nil
	}

	payload, err := r.readSegment(segmentTOC)
	if err != nil {
		return nil, err
	}
	var toc TOC
	if err := codec.Unmarshal(payload, &toc); err != nil {
		return nil, fmt.Errorf("dac: decoding TOC: %w", err)
	}
	r.toc = toc
	return r.toc, nil
}

// IDs returns every asset ID in the container, sorted.
func (r *Reader) IDs() ([]asset.ID, error) {
	toc, err := r.TOC()
	if err != nil {
		return nil, err
	}
	ids := make([]asset.ID, 0, len(toc))
	for id := range toc {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ReadRaw returns the decompressed IR bytes for one asset, without
// decoding them. This is the byte-level surface behind the runtime
// import interface.
func (r *Reader) ReadRaw(id asset.ID) ([]byte, Record, error) {
	toc, err := r.TOC()
	if err != nil {
		return nil, Record{}, err
	}
	record, ok := toc[id]
	if !ok {
		return nil, Record{}, &AssetNotFoundError{ID: id}
	}
	if !record.Compression.Valid() {
		return nil, Record{}, fmt.Errorf("dac: asset %s has unsupported compression mode %d",
			id, uint8(record.Compression))
	}

	data := r.segments[segmentData]
	end := int64(record.Offset) + int64(record.Length)
	if end > data.length {
		return nil, Record{}, fmt.Errorf("dac: TOC record for %s is out of range: [%d, %d) in a %d-byte data segment",
			id, record.Offset, end, data.length)
	}

	if _, err := r.source.Seek(data.offset+int64(record.Offset), io.SeekStart); err != nil {
		return nil, Record{}, fmt.Errorf("dac: seeking to asset %s: %w", id, err)
	}
	payload := make([]byte, record.Length)
	if _, err := io.ReadFull(r.source, payload); err != nil {
		return nil, Record{}, fmt.Errorf("dac: reading asset %s: %w", id, err)
	}

	decoded, err := compress.Decode(payload, record.Compression)
	if err != nil {
		return nil, Record{}, fmt.Errorf("dac: decompressing asset %s: %w", id, err)
	}
	return decoded, record, nil
}

// Read returns the typed IR for one asset, verified against the
// asset's declared type in the manifest.
func (r *Reader) Read(id asset.ID) (irpkg.IR, error) {
	manifest, err := r.Manifest()
	if err != nil {
		return nil, err
	}
	header, err := manifest.Header(id)
	if err != nil {
		return nil, err
	}

	raw, _, err := r.ReadRaw(id)
	if err != nil {
		return nil, err
	}
	value, err := irpkg.Unmarshal(raw, header.Type)
	if err != nil {
		return nil, fmt.Errorf("dac: decoding asset %s: %w", id, err)
	}
	return value, nil
}

// FileReader is a Reader backed by an open file.
type FileReader struct {
	Reader
	file *os.File
}

// OpenFile opens a container file for reading.
func OpenFile(path string) (*FileReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dac: opening container: %w", err)
	}
	reader, err := Open(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &FileReader{Reader: *reader, file: file}, nil
}

// Close releases the underlying file.
func (r *FileReader) Close() error {
	return r.file.Close()
}

// ReadManifest reads only the manifest from a container file.
func ReadManifest(path string) (*Manifest, error) {
	reader, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.Manifest()
}
