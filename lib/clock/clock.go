// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code
// injects Real(); tests inject a Fake with deterministic control.
//
// Everything in the pipeline that reads the wall clock (manifest
// creation timestamps) or sleeps (factory poll loops, the hub driver)
// takes a Clock instead of calling the time package directly, so
// tests neither depend on real time nor wait on it.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source injected through the pipeline.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// realClock delegates to the time package.
type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Real returns the wall-clock Clock used in production.
func Real() Clock {
	return realClock{}
}

// Fake is a deterministic Clock for tests. Now returns a controlled
// instant; Sleep advances that instant without waiting, so poll loops
// under test spin freely while observing monotonic fake time.
type Fake struct {
	mu  sync.Mutex
	now time.Time

	// sleeps counts Sleep calls, letting tests assert that a poll
	// loop actually yields between empty polls.
	sleeps int
}

// NewFake returns a Fake starting at a fixed, arbitrary instant.
func NewFake() *Fake {
	return &Fake{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the fake time by d without blocking.
func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.sleeps++
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Sleeps returns how many times Sleep has been called.
func (f *Fake) Sleeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sleeps
}
