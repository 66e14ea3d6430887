// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import (
	"fmt"

	"github.com/dawn-engine/dawn/lib/asset"
)

// Command is the operation a task performs.
type Command uint8

const (
	// CommandEnumerate lists every registered header.
	CommandEnumerate Command = iota

	// CommandRead decodes an asset's raw bytes into IR.
	CommandRead

	// CommandLoad hands IR to the asset's factory.
	CommandLoad

	// CommandFree asks the factory to destroy the native object.
	CommandFree

	// CommandJoin is the completion anchor of a request: it performs
	// no work and depends on every task, own or foreign, the request
	// waits on. It lets a request attach to work already in flight
	// for another request.
	CommandJoin
)

func (c Command) String() string {
	switch c {
	case CommandEnumerate:
		return "enumerate"
	case CommandRead:
		return "read"
	case CommandLoad:
		return "load"
	case CommandFree:
		return "free"
	case CommandJoin:
		return "join"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

type taskState uint8

const (
	taskPending taskState = iota
	taskProcessing
	taskDone
)

// Task is one tracked in-flight operation: the dependency-graph
// vertex of the query pool. A task is dispatched only when its
// dependency set is empty; completed dependencies are removed as
// their replies arrive.
type Task struct {
	ID      TaskID
	Command Command
	Asset   asset.ID

	deps  map[TaskID]struct{}
	state taskState
}

// NewTask builds a pending task depending on deps.
func NewTask(id TaskID, command Command, assetID asset.ID, deps ...TaskID) *Task {
	depSet := make(map[TaskID]struct{}, len(deps))
	for _, dep := range deps {
		depSet[dep] = struct{}{}
	}
	return &Task{ID: id, Command: command, Asset: assetID, deps: depSet}
}

type poolRequest struct {
	id    RequestID
	tasks []*Task
}

// QueryPool tracks every in-flight request's task graph. At most one
// outstanding Read or Load exists per asset: later requests attach to
// the in-flight task as dependents instead of re-issuing it. The pool
// is owned by the hub's driver goroutine.
type QueryPool struct {
	requests []*poolRequest

	// inflight maps an asset to its outstanding Read/Load/Free task.
	inflight map[asset.ID]TaskID

	// orphaned holds tasks that were already dispatched to a factory
	// when their request failed. Their in-flight claims stay until
	// the factory's reply settles them, so no duplicate dispatch can
	// be issued for the same asset in the meantime.
	orphaned map[TaskID]asset.ID
}

func NewQueryPool() *QueryPool {
	return &QueryPool{
		inflight: make(map[asset.ID]TaskID),
		orphaned: make(map[TaskID]asset.ID),
	}
}

// InFlight returns the outstanding task for an asset, if any.
func (p *QueryPool) InFlight(id asset.ID) (TaskID, bool) {
	taskID, ok := p.inflight[id]
	return taskID, ok
}

// Empty reports whether no requests are outstanding.
func (p *QueryPool) Empty() bool {
	return len(p.requests) == 0
}

// AddRequest registers a request's task graph. Tasks touching an
// asset are recorded as that asset's in-flight operation.
func (p *QueryPool) AddRequest(id RequestID, tasks []*Task) {
	p.requests = append(p.requests, &poolRequest{id: id, tasks: tasks})
	for _, task := range tasks {
		if task.Asset != "" {
			p.inflight[task.Asset] = task.ID
		}
	}
}

// Next returns a dispatchable task: pending, with every dependency
// settled. The task is marked processing until Done, Requeue, or
// Fail.
func (p *QueryPool) Next() (*Task, bool) {
	for _, request := range p.requests {
		for _, task := range request.tasks {
			if task.state == taskPending && len(task.deps) == 0 {
				task.state = taskProcessing
				return task, true
			}
		}
	}
	return nil, false
}

// Requeue returns a processing task to pending, used when dispatch
// hit factory-queue backpressure and must retry later.
func (p *QueryPool) Requeue(id TaskID) {
	if task := p.find(id); task != nil && task.state == taskProcessing {
		task.state = taskPending
	}
}

// Done marks a task complete, releases its dependents (across all
// requests), and reports whether the owning request finished.
func (p *QueryPool) Done(id TaskID) (RequestID, bool) {
	task := p.find(id)
	if task == nil {
		return 0, false
	}
	task.state = taskDone
	if task.Asset != "" && p.inflight[task.Asset] == id {
		delete(p.inflight, task.Asset)
	}

	for _, request := range p.requests {
		for _, other := range request.tasks {
			delete(other.deps, id)
		}
	}

	for i, request := range p.requests {
		if request.id != id.Request {
			continue
		}
		for _, other := range request.tasks {
			if other.state != taskDone {
				return 0, false
			}
		}
		p.requests = append(p.requests[:i], p.requests[i+1:]...)
		return request.id, true
	}
	return 0, false
}

// Fail abandons the task's request and, transitively, every request
// with a task depending on anything in an abandoned request. Returns
// the failed request IDs in failure order.
//
// The claim of the failing task itself is released: its reply (or its
// dispatch-time precondition failure) is what brought us here. Claims
// of other tasks already handed to a factory are kept as orphans
// until Release sees their replies; undispatched tasks release
// immediately.
func (p *QueryPool) Fail(id TaskID) []RequestID {
	var failed []RequestID
	pending := []RequestID{id.Request}

	for len(pending) > 0 {
		requestID := pending[0]
		pending = pending[1:]

		request := p.remove(requestID)
		if request == nil {
			continue
		}
		failed = append(failed, requestID)

		dead := make(map[TaskID]struct{}, len(request.tasks))
		for _, task := range request.tasks {
			dead[task.ID] = struct{}{}
			if task.Asset == "" || p.inflight[task.Asset] != task.ID {
				continue
			}
			if task.state == taskProcessing && task.ID != id {
				p.orphaned[task.ID] = task.Asset
				continue
			}
			delete(p.inflight, task.Asset)
		}

		// Any survivor depending on a dead task can never dispatch;
		// its request fails too.
		for _, survivor := range p.requests {
			for _, task := range survivor.tasks {
				for dep := range task.deps {
					if _, ok := dead[dep]; ok {
						pending = append(pending, survivor.id)
					}
				}
			}
		}
	}
	return failed
}

// Release settles an orphaned dispatch once its reply arrives,
// dropping the in-flight claim it was holding. Reports whether id was
// orphaned.
func (p *QueryPool) Release(id TaskID) bool {
	assetID, ok := p.orphaned[id]
	if !ok {
		return false
	}
	delete(p.orphaned, id)
	if p.inflight[assetID] == id {
		delete(p.inflight, assetID)
	}
	return true
}

func (p *QueryPool) find(id TaskID) *Task {
	for _, request := range p.requests {
		if request.id != id.Request {
			continue
		}
		for _, task := range request.tasks {
			if task.ID == id {
				return task
			}
		}
	}
	return nil
}

func (p *QueryPool) remove(id RequestID) *poolRequest {
	for i, request := range p.requests {
		if request.id == id {
			p.requests = append(p.requests[:i], p.requests[i+1:]...)
			return request
		}
	}
	return nil
}
