// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Dawn-pack runs the offline asset build: it scans a directory of
// asset definition files, converts each into engine IR, and writes a
// single DAC container.
//
// Configuration comes from a YAML file (--config or DAWN_CONFIG),
// optionally narrowed by a named profile (--profile shipping).
// --source and --output override the configured paths, and both work
// without any config file for one-off builds.
//
// Exit codes:
//
//	0  container written
//	1  build failed (details on stderr)
//	2  bad arguments or configuration
package main
