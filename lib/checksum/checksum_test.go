// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"strings"
	"testing"
)

func TestSumAlgorithms(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	for _, algorithm := range []Algorithm{Blake3, MD5, SHA256} {
		first, err := Sum(data, algorithm)
		if err != nil {
			t.Fatalf("Sum(%s) failed: %v", algorithm, err)
		}
		if first.IsZero() {
			t.Errorf("Sum(%s) returned the zero checksum", algorithm)
		}

		again, err := Sum(data, algorithm)
		if err != nil {
			t.Fatalf("Sum(%s) failed: %v", algorithm, err)
		}
		if first != again {
			t.Errorf("Sum(%s) is not deterministic", algorithm)
		}

		changed, err := Sum(append([]byte("x"), data...), algorithm)
		if err != nil {
			t.Fatalf("Sum(%s) failed: %v", algorithm, err)
		}
		if changed == first {
			t.Errorf("Sum(%s) did not change with different input", algorithm)
		}
	}
}

func TestSumUnknownAlgorithm(t *testing.T) {
	if _, err := Sum([]byte("data"), Algorithm(99)); err == nil {
		t.Fatal("Sum with unknown algorithm did not fail")
	}
}

func TestChecksumStringParse(t *testing.T) {
	original, err := Sum([]byte("payload"), Blake3)
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}

	encoded := original.String()
	if len(encoded) != Size*2 {
		t.Fatalf("String length = %d, want %d", len(encoded), Size*2)
	}

	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed != original {
		t.Error("Parse(String()) does not round trip")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	for _, input := range []string{
		"",
		"zz",
		strings.Repeat("ab", Size-1), // too short
		strings.Repeat("ab", Size+1), // too long
	} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) did not fail", input)
		}
	}
}

func TestFromBytesPadding(t *testing.T) {
	c := FromBytes([]byte{1, 2, 3})
	if c[0] != 1 || c[1] != 2 || c[2] != 3 {
		t.Error("FromBytes did not copy the prefix")
	}
	for i := 3; i < Size; i++ {
		if c[i] != 0 {
			t.Errorf("byte %d = %d, want zero padding", i, c[i])
		}
	}

	long := make([]byte, Size+8)
	for i := range long {
		long[i] = byte(i + 1)
	}
	truncated := FromBytes(long)
	for i := 0; i < Size; i++ {
		if truncated[i] != byte(i+1) {
			t.Fatalf("byte %d = %d, want %d", i, truncated[i], i+1)
		}
	}
}

func TestAlgorithmNames(t *testing.T) {
	for _, algorithm := range []Algorithm{Blake3, MD5, SHA256} {
		parsed, err := ParseAlgorithm(algorithm.String())
		if err != nil {
			t.Fatalf("ParseAlgorithm(%s) failed: %v", algorithm, err)
		}
		if parsed != algorithm {
			t.Errorf("ParseAlgorithm(%s) = %s", algorithm, parsed)
		}
	}

	if _, err := ParseAlgorithm("crc32"); err == nil {
		t.Error("ParseAlgorithm(crc32) did not fail")
	}
}
