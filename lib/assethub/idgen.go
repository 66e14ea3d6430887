// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import (
	"fmt"
	"sync/atomic"
)

// RequestID identifies one user-facing query (a load, free, or
// enumerate request and everything it fans out into).
type RequestID uint64

func (id RequestID) String() string {
	return fmt.Sprintf("request(%d)", id)
}

// TaskID identifies one in-flight operation within a request. The
// pair is unique for the lifetime of its IDGenerator and serves as
// the vertex identity in the query pool's dependency graph.
type TaskID struct {
	Request RequestID
	Seq     uint64
}

func (id TaskID) String() string {
	return fmt.Sprintf("task(%d,%d)", id.Request, id.Seq)
}

// IDGenerator mints request and task IDs. Generators are injected
// rather than global, so tests get deterministic IDs and independent
// hubs never share a sequence.
type IDGenerator struct {
	requests atomic.Uint64
	tasks    atomic.Uint64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NextRequest returns a fresh request ID.
func (g *IDGenerator) NextRequest() RequestID {
	return RequestID(g.requests.Add(1))
}

// NextTask returns a fresh task ID under the given request.
func (g *IDGenerator) NextTask(request RequestID) TaskID {
	return TaskID{Request: request, Seq: g.tasks.Add(1)}
}
