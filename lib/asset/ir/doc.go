// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package ir defines the intermediate representation of every asset
// kind the pipeline understands, plus the envelope encoding used to
// persist IR values in containers and the build cache.
//
// Converters produce IR at build time; factories consume it at run
// time. Neither side sees the other's formats: an audio converter may
// parse WAV and an audio factory may feed a mixer, but between them
// travels only ir.Audio.
package ir
