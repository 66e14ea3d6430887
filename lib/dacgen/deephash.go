// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dacgen

import (
	"encoding/binary"
	"fmt"
	"hash"
	"math"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/checksum"
)

// DeepHasher folds a build input into a single checksum: every
// declared configuration field plus the content of every file the
// definition references. Two builds with the same deep hash produce
// the same binaries, so the hash doubles as the cache key.
//
// Callers feed fields explicitly, in declaration order. Variable
// length values are length-prefixed so adjacent fields cannot alias
// each other. Machine-local context (the cache directory, the working
// directory, timestamps) is never fed in: the hash must agree across
// machines and checkouts.
type DeepHasher struct {
	hasher hash.Hash
}

// NewDeepHasher returns a hasher using the given checksum algorithm.
func NewDeepHasher(algorithm checksum.Algorithm) (*DeepHasher, error) {
	hasher, err := checksum.New(algorithm)
	if err != nil {
		return nil, fmt.Errorf("deep hash: %w", err)
	}
	return &DeepHasher{hasher: hasher}, nil
}

// Tag feeds a one-byte discriminator, used ahead of variant fields so
// that differently-shaped values never hash alike.
func (d *DeepHasher) Tag(tag byte) {
	d.hasher.Write([]byte{tag})
}

// Bytes feeds a length-prefixed byte string.
func (d *DeepHasher) Bytes(data []byte) {
	d.Uint64(uint64(len(data)))
	d.hasher.Write(data)
}

// String feeds a length-prefixed string.
func (d *DeepHasher) String(s string) {
	d.Uint64(uint64(len(s)))
	d.hasher.Write([]byte(s))
}

// Uint32 feeds a fixed-width little-endian value.
func (d *DeepHasher) Uint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	d.hasher.Write(buf[:])
}

// Uint64 feeds a fixed-width little-endian value.
func (d *DeepHasher) Uint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	d.hasher.Write(buf[:])
}

// Int64 feeds a fixed-width little-endian value.
func (d *DeepHasher) Int64(v int64) {
	d.Uint64(uint64(v))
}

// Bool feeds a single 0/1 byte.
func (d *DeepHasher) Bool(v bool) {
	if v {
		d.Tag(1)
	} else {
		d.Tag(0)
	}
}

// Float32 feeds the bit representation, so -0 and NaN payloads hash
// stably.
func (d *DeepHasher) Float32(v float32) {
	d.Uint32(math.Float32bits(v))
}

// Strings feeds a count-prefixed list in order.
func (d *DeepHasher) Strings(values []string) {
	d.Uint64(uint64(len(values)))
	for _, v := range values {
		d.String(v)
	}
}

// IDs feeds a count-prefixed list of asset IDs in order.
func (d *DeepHasher) IDs(ids []asset.ID) {
	d.Uint64(uint64(len(ids)))
	for _, id := range ids {
		d.String(string(id))
	}
}

// File feeds a source reference: the reference string as authored
// (machine-independent) followed by the referenced file's content.
func (d *DeepHasher) File(resolver *Resolver, ref SourceRef) error {
	d.String(string(ref))
	data, err := resolver.Read(ref)
	if err != nil {
		return err
	}
	d.Bytes(data)
	return nil
}

// Sum finalizes the hash.
func (d *DeepHasher) Sum() checksum.Checksum {
	return checksum.Finish(d.hasher)
}
