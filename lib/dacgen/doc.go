// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package dacgen implements the offline asset build: it scans a
// directory of JSONC asset definitions, converts each into the
// engine's intermediate representation, and writes a single DAC
// container.
//
// Builds are incremental through a content-addressed cache. Every
// definition's cache key is a deep hash over the build configuration,
// the definition's declared fields, and the bytes of every file it
// references, so any input change rebuilds exactly the affected
// assets and nothing else. Cache location and checkout location never
// enter the hash; a cache directory can be relocated or shared
// between machines without invalidating it.
//
// The pipeline core does not understand asset content. Converters
// (see Converter) own all type-specific interpretation; the defaults
// frame authored bytes and declared fields into IR without decoding
// media formats.
package dacgen
