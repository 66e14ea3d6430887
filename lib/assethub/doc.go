// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package assethub is the runtime side of the asset pipeline: it
// imports a container's assets in bulk, tracks each asset through the
// empty, resident-IR, and loaded states, and orchestrates factories
// that turn IR into live engine objects.
//
// The hub is single-driver: one goroutine owns it and calls Update
// every frame. Factories run on their own goroutines and talk to the
// hub exclusively through bounded queue pairs, one binding per asset
// type. Queries (load, free, enumerate) build task graphs in the
// query pool; Update dispatches tasks whose dependencies have settled
// and absorbs factory replies, so an asset is always constructed
// after every asset it depends on and destroyed before them.
//
// Consumers hold asset.Handle values obtained from the hub. Borrow
// counting on handles is the only cross-goroutine lifetime state;
// freeing an asset with an outstanding borrow is a fatal consumer
// bug, not a wait condition.
package assethub
