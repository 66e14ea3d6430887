// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset defines the data model shared by the build pipeline
// and the runtime loader: asset identity, the discriminated type set,
// headers, memory accounting, and the type-erased Handle through
// which consumers borrow loaded native objects.
//
// The package deliberately contains no I/O. Containers live in
// lib/dac, conversion in lib/dacgen, and runtime state in
// lib/assethub; all three agree on the types defined here.
package asset
