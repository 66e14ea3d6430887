// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"sync/atomic"
)

// Handle is a type-erased reference to a native object constructed by
// a factory. The factory remains the canonical owner of the object;
// a Handle is a weak observer whose shared borrow counter tells the
// owner when the object can be destroyed.
//
// Handles are cheap to copy: copies share the same borrow counter and
// underlying value. The value is held as a closed polymorphic `any`
// and recovered with the checked [Cast] — there is no unchecked
// reinterpretation anywhere.
type Handle struct {
	typ     Type
	value   any
	borrows *atomic.Int64
}

// NewHandle wraps a factory-constructed native object. The value must
// be non-nil; wrapping nil is a programming error.
func NewHandle(typ Type, value any) Handle {
	if value == nil {
		panic("asset: NewHandle called with nil value")
	}
	return Handle{typ: typ, value: value, borrows: new(atomic.Int64)}
}

// Type returns the declared asset type of the underlying object.
func (h Handle) Type() Type {
	return h.typ
}

// Valid reports whether the handle wraps an object.
func (h Handle) Valid() bool {
	return h.value != nil
}

// Acquire marks the handle as borrowed. Every Acquire must be paired
// with a Release before the owning factory frees the object.
func (h Handle) Acquire() {
	h.borrows.Add(1)
}

// Release ends one borrow. Releasing more times than Acquire was
// called is a programming error and panics.
func (h Handle) Release() {
	if h.borrows.Add(-1) < 0 {
		panic("asset: Handle released more times than acquired")
	}
}

// InUse reports whether any borrow is outstanding.
func (h Handle) InUse() bool {
	return h.borrows.Load() > 0
}

// Borrows returns the current outstanding borrow count.
func (h Handle) Borrows() int {
	return int(h.borrows.Load())
}

// Discard asserts that no borrows are outstanding. The registry calls
// this before telling the factory to free the underlying object. An
// outstanding borrow at this point is an unreleased-borrow bug in the
// consumer and is fatal: the borrow counter is an error detector, not
// a synchronization primitive, so there is nothing to wait for.
func (h Handle) Discard() {
	if count := h.borrows.Load(); count > 0 {
		panic(fmt.Sprintf("asset: %s handle discarded with %d outstanding borrows", h.typ, count))
	}
}

// Cast recovers the concrete native object from a handle, verifying
// the dynamic type. A mismatch returns an error rather than panicking
// so callers can surface it with asset context attached.
func Cast[T any](h Handle) (T, error) {
	value, ok := h.value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("asset: handle holds %T, not %T", h.value, zero)
	}
	return value, nil
}

// MustCast is Cast for call sites that have already validated the
// type through the registry; a mismatch panics.
func MustCast[T any](h Handle) T {
	value, err := Cast[T](h)
	if err != nil {
		panic(err.Error())
	}
	return value
}

// Borrowed couples a concrete value with its handle so the release
// obligation is explicit at the call site.
type Borrowed[T any] struct {
	Value  T
	handle Handle
}

// BorrowAs acquires the handle and returns the typed value. The
// caller must call Release on the result exactly once.
func BorrowAs[T any](h Handle) (Borrowed[T], error) {
	value, err := Cast[T](h)
	if err != nil {
		return Borrowed[T]{}, err
	}
	h.Acquire()
	return Borrowed[T]{Value: value, handle: h}, nil
}

// Release ends the borrow started by BorrowAs.
func (b Borrowed[T]) Release() {
	b.handle.Release()
}
