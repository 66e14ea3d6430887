// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Mode identifies the compression applied to one asset payload.
// Modes are stored in container TOC records — changing the values
// breaks container format compatibility.
type Mode uint8

const (
	// None indicates an uncompressed payload. Chosen automatically
	// when compression would not shrink the data (already-compressed
	// media, small payloads).
	None Mode = 0

	// Brotli indicates a brotli stream. The only real codec in the
	// container format: asset payloads are mostly text (shader
	// source, dictionaries) or loosely structured binary, both of
	// which brotli handles well at build-time-acceptable cost.
	Brotli Mode = 1
)

// String returns the human-readable name of a compression mode.
func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Brotli:
		return "brotli"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Valid reports whether m is a mode this package can decode.
func (m Mode) Valid() bool {
	return m == None || m == Brotli
}

// Level selects the effort/ratio trade-off for the brotli encoder.
type Level uint8

const (
	// LevelNone disables compression entirely: every payload is
	// stored with Mode None. Useful for debug builds where container
	// write time dominates.
	LevelNone Level = iota

	// LevelFast is brotli quality 3 with a 1 MiB window.
	LevelFast

	// LevelDefault is brotli quality 6 with a 4 MiB window.
	LevelDefault

	// LevelBest is brotli quality 11 with a 4 MiB window. Shipping
	// builds only — an order of magnitude slower than LevelDefault.
	LevelBest
)

// String returns the configuration-facing name of the level.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelFast:
		return "fast"
	case LevelDefault:
		return "default"
	case LevelBest:
		return "best"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(l))
	}
}

// ParseLevel parses a compression level from its string name.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "none":
		return LevelNone, nil
	case "fast":
		return LevelFast, nil
	case "default":
		return LevelDefault, nil
	case "best":
		return LevelBest, nil
	default:
		return 0, fmt.Errorf("unknown compression level: %q", name)
	}
}

// options maps a Level to brotli encoder parameters. LGWin values
// follow the reference packer: 20 for fast, 22 otherwise.
func options(level Level) brotli.WriterOptions {
	switch level {
	case LevelFast:
		return brotli.WriterOptions{Quality: 3, LGWin: 20}
	case LevelBest:
		return brotli.WriterOptions{Quality: 11, LGWin: 22}
	default:
		return brotli.WriterOptions{Quality: 6, LGWin: 22}
	}
}

// Compress compresses data with brotli at the given level. For
// LevelNone the input is returned unchanged (no copy).
func Compress(data []byte, level Level) ([]byte, error) {
	if level == LevelNone {
		return data, nil
	}

	var buffer bytes.Buffer
	writer := brotli.NewWriterOptions(&buffer, options(level))
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("brotli compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("brotli compress: %w", err)
	}
	return buffer.Bytes(), nil
}

// Decompress decodes a brotli stream produced by Compress.
func Decompress(data []byte) ([]byte, error) {
	result, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("brotli decompress: %w", err)
	}
	return result, nil
}

// Encode compresses data and decides whether compression was worth
// it: if the compressed output is not strictly smaller than the
// input (or the level is LevelNone), the original bytes are returned
// with Mode None. The returned Mode is what the caller must record
// in the TOC.
func Encode(data []byte, level Level) ([]byte, Mode, error) {
	if level == LevelNone || len(data) == 0 {
		return data, None, nil
	}

	compressed, err := Compress(data, level)
	if err != nil {
		return nil, None, err
	}
	if len(compressed) == 0 || len(compressed) >= len(data) {
		return data, None, nil
	}
	return compressed, Brotli, nil
}

// Decode reverses Encode given the recorded mode.
func Decode(data []byte, mode Mode) ([]byte, error) {
	switch mode {
	case None:
		return data, nil
	case Brotli:
		return Decompress(data)
	default:
		return nil, fmt.Errorf("unsupported compression mode: %d", uint8(mode))
	}
}
