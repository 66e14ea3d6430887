// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Dawn-inspect prints a DAC container's build provenance and asset
// table. It reads only the TOC and Manifest segments, never the Data
// payloads, so inspecting a multi-gigabyte container is cheap.
//
// Exit codes:
//
//	0  container read
//	1  unreadable or malformed container
//	2  bad arguments
package main
