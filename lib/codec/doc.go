// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the serialization backend for the asset
// pipeline: CBOR (RFC 8949) with Core Deterministic Encoding.
//
// Everything the pipeline persists — container tables of contents,
// manifests, IR payloads, and build-cache entries — goes through this
// package, so the choice of wire encoding is made exactly once.
// Deterministic encoding matters because cache correctness depends on
// byte-identical output for logically identical input.
package codec
