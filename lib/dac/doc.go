// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package dac implements the Dawn Asset Container format: a single
// binary file holding a table of contents, a build manifest, and a
// data segment of independently compressed asset payloads.
//
// The layout is a 3-byte "DAC" magic followed by framed segments,
// each a 1-byte type, a 4-byte little-endian length, and the payload.
// Segment types: 0x0 TOC, 0x1 Manifest, 0x2 Data. Exactly one TOC and
// one Manifest appear per container. The Data segment carries every
// asset's serialized IR, each compressed on its own, so single-asset
// reads decompress nothing else.
//
// TOC and Manifest payloads are deterministic CBOR via lib/codec;
// asset payloads are the lib/asset/ir envelope encoding, optionally
// wrapped in brotli per their TOC record.
package dac
