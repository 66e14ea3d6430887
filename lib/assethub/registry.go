// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/asset/ir"
)

// ErrAssetNotFound is returned by registry lookups for unknown IDs.
var ErrAssetNotFound = errors.New("assethub: asset not found")

// AssetState is one stop in an asset's runtime lifecycle. States only
// move forward through Read then Load; Free returns a loaded asset to
// StateEmpty, and a fresh load starts over from the raw bytes.
type AssetState uint8

const (
	// StateEmpty: the header is known, nothing is resident.
	StateEmpty AssetState = iota

	// StateIR: the decoded intermediate representation is resident,
	// ready to hand to a factory.
	StateIR

	// StateLoaded: a factory has constructed the native object; the
	// registry holds its handle and reported memory usage.
	StateLoaded
)

func (s AssetState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateIR:
		return "ir"
	case StateLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

type registryEntry struct {
	header asset.Header
	state  AssetState
	ir     ir.IR
	handle asset.Handle
	usage  asset.MemoryUsage
}

// Registry tracks every known asset's header and lifecycle state. It
// is owned by the hub's driving goroutine and is not safe for
// concurrent use; factories never touch it.
type Registry struct {
	entries map[asset.ID]*registryEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[asset.ID]*registryEntry)}
}

// Register adds (or overwrites) an asset in the empty state.
func (r *Registry) Register(header asset.Header) {
	r.entries[header.ID] = &registryEntry{header: header, state: StateEmpty}
}

// Header returns the registered header for id.
func (r *Registry) Header(id asset.ID) (asset.Header, error) {
	entry, ok := r.entries[id]
	if !ok {
		return asset.Header{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	return entry.header, nil
}

// State returns the lifecycle state for id.
func (r *Registry) State(id asset.ID) (AssetState, error) {
	entry, ok := r.entries[id]
	if !ok {
		return StateEmpty, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	return entry.state, nil
}

// SetIR transitions id from empty to IR-resident.
func (r *Registry) SetIR(id asset.ID, value ir.IR) error {
	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if entry.state != StateEmpty {
		return fmt.Errorf("assethub: asset %s is %s, cannot accept IR", id, entry.state)
	}
	entry.state = StateIR
	entry.ir = value
	return nil
}

// SetLoaded transitions id from IR-resident to loaded. Loading
// directly from empty is rejected: the IR must exist first.
func (r *Registry) SetLoaded(id asset.ID, handle asset.Handle, usage asset.MemoryUsage) error {
	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if entry.state != StateIR {
		return fmt.Errorf("assethub: asset %s is %s, cannot mark loaded", id, entry.state)
	}
	entry.state = StateLoaded
	entry.ir = nil
	entry.handle = handle
	entry.usage = usage
	return nil
}

// SetEmpty transitions id from loaded back to empty after a free.
func (r *Registry) SetEmpty(id asset.ID) error {
	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if entry.state != StateLoaded {
		return fmt.Errorf("assethub: asset %s is %s, cannot free", id, entry.state)
	}
	entry.state = StateEmpty
	entry.handle = asset.Handle{}
	entry.usage = asset.MemoryUsage{}
	return nil
}

// IR returns the resident intermediate representation for id.
func (r *Registry) IR(id asset.ID) (ir.IR, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if entry.state != StateIR {
		return nil, fmt.Errorf("assethub: asset %s is %s, no IR resident", id, entry.state)
	}
	return entry.ir, nil
}

// Handle returns the live handle for a loaded asset.
func (r *Registry) Handle(id asset.ID) (asset.Handle, error) {
	entry, ok := r.entries[id]
	if !ok {
		return asset.Handle{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if entry.state != StateLoaded {
		return asset.Handle{}, fmt.Errorf("assethub: asset %s is %s, not loaded", id, entry.state)
	}
	return entry.handle, nil
}

// Usage returns the factory-reported memory footprint for a loaded
// asset.
func (r *Registry) Usage(id asset.ID) (asset.MemoryUsage, error) {
	entry, ok := r.entries[id]
	if !ok {
		return asset.MemoryUsage{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	return entry.usage, nil
}

// IDs returns every registered asset ID, sorted.
func (r *Registry) IDs() []asset.ID {
	ids := make([]asset.ID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dependents returns the IDs of registered assets that list id as a
// dependency.
func (r *Registry) Dependents(id asset.ID) []asset.ID {
	var dependents []asset.ID
	for otherID, entry := range r.entries {
		for _, dep := range entry.header.Dependencies {
			if dep == id {
				dependents = append(dependents, otherID)
				break
			}
		}
	}
	sort.Slice(dependents, func(i, j int) bool { return dependents[i] < dependents[j] })
	return dependents
}

// AllLoaded reports whether every registered asset is loaded.
func (r *Registry) AllLoaded() bool {
	for _, entry := range r.entries {
		if entry.state != StateLoaded {
			return false
		}
	}
	return true
}

// AllEmpty reports whether every registered asset is empty.
func (r *Registry) AllEmpty() bool {
	for _, entry := range r.entries {
		if entry.state != StateEmpty {
			return false
		}
	}
	return true
}
