// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

// Size is the fixed checksum width stored per asset. Digests longer
// than 16 bytes are truncated; shorter ones are zero-padded.
const Size = 16

// Checksum is a fixed-size digest carried in asset headers. The zero
// value (all-zero bytes) means "no checksum recorded" and is the
// default for assets whose converter did not compute one.
type Checksum [Size]byte

// FromBytes builds a Checksum from an arbitrary-length digest,
// truncating or zero-padding to Size bytes.
func FromBytes(digest []byte) Checksum {
	var c Checksum
	copy(c[:], digest)
	return c
}

// IsZero reports whether the checksum is the all-zero default.
func (c Checksum) IsZero() bool {
	return c == Checksum{}
}

// String returns the hex encoding of the checksum. This is the
// canonical form used for cache filenames and log output.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// Parse decodes a 32-character hex string into a Checksum.
func Parse(hexString string) (Checksum, error) {
	var c Checksum
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return c, fmt.Errorf("parsing checksum: %w", err)
	}
	if len(decoded) != Size {
		return c, fmt.Errorf("checksum is %d bytes, want %d", len(decoded), Size)
	}
	copy(c[:], decoded)
	return c, nil
}

// Algorithm identifies the hash function used for asset checksums and
// deep hashes. The algorithm is recorded in the container manifest so
// readers can verify payloads with the same function the writer used.
type Algorithm uint8

const (
	// Blake3 is the default algorithm: fast, and the only one in the
	// set with a keyed/streaming API cheap enough for per-build deep
	// hashing of large source files.
	Blake3 Algorithm = iota

	// MD5 exists for interoperability with external asset tooling
	// that expects MD5 fingerprints. Not collision resistant; fine
	// for cache keys, wrong for security decisions.
	MD5

	// SHA256 for environments that mandate a NIST-approved function.
	SHA256
)

// String returns the manifest-facing name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case Blake3:
		return "blake3"
	case MD5:
		return "md5"
	case SHA256:
		return "sha256"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm parses an algorithm from its string name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "blake3":
		return Blake3, nil
	case "md5":
		return MD5, nil
	case "sha256":
		return SHA256, nil
	default:
		return 0, fmt.Errorf("unknown checksum algorithm: %q", name)
	}
}

// New returns a streaming hasher for the algorithm. The deep hash
// engine feeds configuration fields and referenced file bytes through
// this interface; Finish truncates the digest to checksum width.
func New(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case Blake3:
		return blake3.New(), nil
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm: %s", algorithm)
	}
}

// Sum computes the checksum of data in one call.
func Sum(data []byte, algorithm Algorithm) (Checksum, error) {
	hasher, err := New(algorithm)
	if err != nil {
		return Checksum{}, err
	}
	hasher.Write(data)
	return FromBytes(hasher.Sum(nil)), nil
}

// Finish truncates a streaming hasher's digest to a Checksum.
func Finish(hasher hash.Hash) Checksum {
	return FromBytes(hasher.Sum(nil))
}
