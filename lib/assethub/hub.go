// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/asset/ir"
)

var (
	// ErrCircularDependency means a load request's dependency chain
	// loops back on itself.
	ErrCircularDependency = errors.New("assethub: circular dependency")

	// ErrFactoryNotFound means a query needs an asset type no
	// factory binding serves.
	ErrFactoryNotFound = errors.New("assethub: no factory for asset type")

	// ErrAssetBusy means the asset already has an in-flight
	// operation that conflicts with the query.
	ErrAssetBusy = errors.New("assethub: asset has an in-flight operation")

	// ErrAssetInUse means a free query targets an asset that loaded
	// assets still depend on.
	ErrAssetInUse = errors.New("assethub: asset is still depended on")
)

// EventKind discriminates hub events.
type EventKind uint8

const (
	// EventQueryCompleted reports a request finishing, successfully
	// or not.
	EventQueryCompleted EventKind = iota

	// EventAssetLoaded reports one asset reaching the loaded state.
	EventAssetLoaded

	// EventAssetFreed reports one asset returning to empty.
	EventAssetFreed

	// EventAssetFailed reports a load or free failing; the owning
	// request fails with it.
	EventAssetFailed

	// EventEnumerated carries the header listing of an enumerate
	// request.
	EventEnumerated
)

// Event is one observation from an Update step.
type Event struct {
	Kind    EventKind
	Request RequestID
	Asset   asset.ID
	OK      bool
	Err     error

	// Headers is set on EventEnumerated.
	Headers []asset.Header
}

// AssetInfo is a point-in-time view of one registered asset.
type AssetInfo struct {
	ID      asset.ID
	State   AssetState
	Usage   asset.MemoryUsage
	Borrows int
}

// Hub is the runtime entry point for assets. It owns the registry and
// the query pool, routes work to factory goroutines over bounded
// queues, and is driven by a single goroutine calling Update.
//
// All Hub methods belong to the driving goroutine. Factories interact
// only through their bindings; consumers on other goroutines hold
// Handles whose borrow counters are the sole cross-goroutine lifetime
// state.
type Hub struct {
	registry  *Registry
	pool      *QueryPool
	raw       map[asset.ID][]byte
	factories map[asset.Type]*FactoryBinding
	out       *queue[OutMessage]
	ids       *IDGenerator
	logger    *slog.Logger
}

// New builds a hub over a bulk-imported asset set. Every asset starts
// empty; Read tasks decode the raw bytes on demand.
func New(assets map[asset.ID]RawAsset, ids *IDGenerator, logger *slog.Logger) *Hub {
	registry := NewRegistry()
	raw := make(map[asset.ID][]byte, len(assets))
	for id, rawAsset := range assets {
		registry.Register(rawAsset.Header)
		raw[id] = rawAsset.IR
	}
	return &Hub{
		registry:  registry,
		pool:      NewQueryPool(),
		raw:       raw,
		factories: make(map[asset.Type]*FactoryBinding),
		out:       newQueue[OutMessage](queueCapacity),
		ids:       ids,
		logger:    logger,
	}
}

// NewFromContainer is New over ReadContainer(path).
func NewFromContainer(path string, ids *IDGenerator, logger *slog.Logger) (*Hub, error) {
	assets, err := ReadContainer(path)
	if err != nil {
		return nil, err
	}
	return New(assets, ids, logger), nil
}

// CreateFactoryBinding allocates the queue pair for one asset type's
// factory. Registering the same type twice is a wiring error.
func (h *Hub) CreateFactoryBinding(assetType asset.Type) *FactoryBinding {
	if _, exists := h.factories[assetType]; exists {
		panic(fmt.Sprintf("assethub: factory for %s already bound", assetType))
	}
	binding := &FactoryBinding{
		assetType: assetType,
		in:        newQueue[InMessage](queueCapacity),
		out:       h.out,
	}
	h.factories[assetType] = binding
	h.logger.Info("factory bound", "type", assetType)
	return binding
}

// Header returns the registered header for id.
func (h *Hub) Header(id asset.ID) (asset.Header, error) {
	return h.registry.Header(id)
}

// State returns the lifecycle state for id.
func (h *Hub) State(id asset.ID) (AssetState, error) {
	return h.registry.State(id)
}

// Get returns a handle to a loaded asset. The caller borrows the
// handle with Acquire/Release around any use that outlives the next
// free.
func (h *Hub) Get(id asset.ID) (asset.Handle, error) {
	return h.registry.Handle(id)
}

// GetTyped returns the concrete object behind a loaded asset.
func GetTyped[T any](h *Hub, id asset.ID) (T, error) {
	handle, err := h.Get(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return asset.Cast[T](handle)
}

// Infos reports every registered asset's state, sorted by ID.
func (h *Hub) Infos() []AssetInfo {
	ids := h.registry.IDs()
	infos := make([]AssetInfo, 0, len(ids))
	for _, id := range ids {
		state, _ := h.registry.State(id)
		info := AssetInfo{ID: id, State: state}
		if state == StateLoaded {
			if handle, err := h.registry.Handle(id); err == nil {
				info.Borrows = handle.Borrows()
			}
			info.Usage, _ = h.registry.Usage(id)
		}
		infos = append(infos, info)
	}
	return infos
}

// QueryEnumerate requests a header listing, delivered as an
// EventEnumerated on a later Update.
func (h *Hub) QueryEnumerate() RequestID {
	request := h.ids.NextRequest()
	task := NewTask(h.ids.NextTask(request), CommandEnumerate, "")
	h.pool.AddRequest(request, []*Task{task})
	return request
}

// QueryLoad requests that id and its transitive dependencies become
// loaded. Assets already loaded, or already being loaded by an
// earlier request, are joined rather than re-issued.
func (h *Hub) QueryLoad(id asset.ID) (RequestID, error) {
	request := h.ids.NextRequest()
	builder := &loadBuilder{hub: h, request: request, built: make(map[asset.ID]TaskID)}
	root, err := builder.collect(id, make(map[asset.ID]bool))
	if err != nil {
		return 0, err
	}
	h.pool.AddRequest(request, builder.anchor(root))
	return request, nil
}

// QueryLoadAll requests every registered asset be loaded.
func (h *Hub) QueryLoadAll() (RequestID, error) {
	request := h.ids.NextRequest()
	builder := &loadBuilder{hub: h, request: request, built: make(map[asset.ID]TaskID)}
	var roots []TaskID
	for _, id := range h.registry.IDs() {
		root, err := builder.collect(id, make(map[asset.ID]bool))
		if err != nil {
			return 0, err
		}
		roots = append(roots, root)
	}
	h.pool.AddRequest(request, builder.anchor(roots...))
	return request, nil
}

// QueryFree requests that a loaded asset return to empty. The query
// is rejected while other loaded assets depend on it, or while any
// operation on it is in flight.
func (h *Hub) QueryFree(id asset.ID) (RequestID, error) {
	state, err := h.registry.State(id)
	if err != nil {
		return 0, err
	}
	if state != StateLoaded {
		return 0, fmt.Errorf("assethub: asset %s is %s, cannot free", id, state)
	}
	if _, busy := h.pool.InFlight(id); busy {
		return 0, fmt.Errorf("%w: %s", ErrAssetBusy, id)
	}
	for _, dependent := range h.registry.Dependents(id) {
		depState, err := h.registry.State(dependent)
		if err == nil && depState != StateEmpty {
			return 0, fmt.Errorf("%w: %s needed by %s", ErrAssetInUse, id, dependent)
		}
		if _, busy := h.pool.InFlight(dependent); busy {
			return 0, fmt.Errorf("%w: %s has in-flight dependent %s", ErrAssetBusy, id, dependent)
		}
	}
	if err := h.requireFactory(id); err != nil {
		return 0, err
	}

	request := h.ids.NextRequest()
	task := NewTask(h.ids.NextTask(request), CommandFree, id)
	h.pool.AddRequest(request, []*Task{task})
	return request, nil
}

// QueryFreeAll requests every loaded asset return to empty. Frees are
// ordered so dependents are destroyed before their dependencies.
func (h *Hub) QueryFreeAll() (RequestID, error) {
	request := h.ids.NextRequest()
	var tasks []*Task
	byAsset := make(map[asset.ID]*Task)

	for _, id := range h.registry.IDs() {
		state, err := h.registry.State(id)
		if err != nil || state != StateLoaded {
			continue
		}
		if _, busy := h.pool.InFlight(id); busy {
			return 0, fmt.Errorf("%w: %s", ErrAssetBusy, id)
		}
		if err := h.requireFactory(id); err != nil {
			return 0, err
		}
		task := NewTask(h.ids.NextTask(request), CommandFree, id)
		tasks = append(tasks, task)
		byAsset[id] = task
	}
	if len(tasks) == 0 {
		return request, nil
	}

	// An asset's free waits for the frees of everything that depends
	// on it.
	for id, task := range byAsset {
		for _, dependent := range h.registry.Dependents(id) {
			if dependentTask, ok := byAsset[dependent]; ok {
				task.deps[dependentTask.ID] = struct{}{}
			}
		}
	}

	h.pool.AddRequest(request, tasks)
	return request, nil
}

// loadBuilder accumulates the task graph for one load request.
type loadBuilder struct {
	hub     *Hub
	request RequestID
	tasks   []*Task
	built   map[asset.ID]TaskID
}

// anchor closes the graph with the request's join task, depending on
// every non-zero root. A request whose assets are all loaded already
// gets a dependency-free join and completes on the next update.
func (b *loadBuilder) anchor(roots ...TaskID) []*Task {
	var deps []TaskID
	for _, root := range roots {
		if root != (TaskID{}) {
			deps = append(deps, root)
		}
	}
	join := NewTask(b.hub.ids.NextTask(b.request), CommandJoin, "", deps...)
	return append(b.tasks, join)
}

// collect returns the task the caller should depend on for id. A zero
// TaskID means the asset is already loaded and needs nothing.
func (b *loadBuilder) collect(id asset.ID, visiting map[asset.ID]bool) (TaskID, error) {
	if visiting[id] {
		return TaskID{}, fmt.Errorf("%w: involving %s", ErrCircularDependency, id)
	}
	if taskID, ok := b.built[id]; ok {
		return taskID, nil
	}
	if taskID, ok := b.hub.pool.InFlight(id); ok {
		// An earlier request is already carrying this asset; attach
		// as a dependent rather than re-issuing. A pending free is a
		// conflict, not something to chain onto.
		task := b.hub.pool.find(taskID)
		if task == nil {
			// Dispatched work from a failed request; the factory
			// still owes its reply, so the asset stays busy until
			// that lands.
			return TaskID{}, fmt.Errorf("%w: %s", ErrAssetBusy, id)
		}
		if task.Command == CommandFree {
			return TaskID{}, fmt.Errorf("%w: %s is being freed", ErrAssetBusy, id)
		}
		b.built[id] = taskID
		return taskID, nil
	}

	header, err := b.hub.registry.Header(id)
	if err != nil {
		return TaskID{}, err
	}

	visiting[id] = true
	var depTasks []TaskID
	for _, dep := range header.Dependencies {
		depTask, err := b.collect(dep, visiting)
		if err != nil {
			return TaskID{}, err
		}
		if depTask != (TaskID{}) {
			depTasks = append(depTasks, depTask)
		}
	}
	visiting[id] = false

	state, err := b.hub.registry.State(id)
	if err != nil {
		return TaskID{}, err
	}
	if state == StateLoaded {
		b.built[id] = TaskID{}
		return TaskID{}, nil
	}
	if err := b.hub.requireFactory(id); err != nil {
		return TaskID{}, err
	}

	loadDeps := depTasks
	if state == StateEmpty {
		read := NewTask(b.hub.ids.NextTask(b.request), CommandRead, id, depTasks...)
		b.tasks = append(b.tasks, read)
		loadDeps = append(append([]TaskID{}, depTasks...), read.ID)
	}
	load := NewTask(b.hub.ids.NextTask(b.request), CommandLoad, id, loadDeps...)
	b.tasks = append(b.tasks, load)
	b.built[id] = load.ID
	return load.ID, nil
}

func (h *Hub) requireFactory(id asset.ID) error {
	header, err := h.registry.Header(id)
	if err != nil {
		return err
	}
	if _, ok := h.factories[header.Type]; !ok {
		return fmt.Errorf("%w: %s (asset %s)", ErrFactoryNotFound, header.Type, id)
	}
	return nil
}

// Update runs one driver step: absorb factory replies, then dispatch
// every task whose dependencies are settled. Returns the events the
// step produced. Dispatch stops early on factory-queue backpressure
// and resumes on the next call; nothing is dropped.
func (h *Hub) Update() []Event {
	var events []Event
	events = h.drainReplies(events)
	events = h.dispatch(events)
	return events
}

func (h *Hub) drainReplies(events []Event) []Event {
	for {
		message, ok := h.out.TryPop()
		if !ok {
			return events
		}

		// A reply for a dispatch whose request already failed only
		// settles the asset's in-flight claim; no request completes
		// from it, but the registry transition still applies.
		orphaned := h.pool.Release(message.Task)

		if message.Err != nil {
			events = h.failTask(message.Task, message.ID, message.Err, events)
			continue
		}

		switch message.Kind {
		case MessageLoad:
			if err := h.registry.SetLoaded(message.ID, message.Handle, message.Usage); err != nil {
				events = h.failTask(message.Task, message.ID, err, events)
				continue
			}
			events = append(events, Event{Kind: EventAssetLoaded, Asset: message.ID})

		case MessageFree:
			if err := h.registry.SetEmpty(message.ID); err != nil {
				events = h.failTask(message.Task, message.ID, err, events)
				continue
			}
			events = append(events, Event{Kind: EventAssetFreed, Asset: message.ID})
		}

		if !orphaned {
			events = h.taskDone(message.Task, events)
		}
	}
}

func (h *Hub) taskDone(id TaskID, events []Event) []Event {
	if request, completed := h.pool.Done(id); completed {
		events = append(events, Event{Kind: EventQueryCompleted, Request: request, OK: true})
	}
	return events
}

// failTask reports a task failure: the asset event, then the failure
// of its request and of every request attached to the dead work.
func (h *Hub) failTask(id TaskID, assetID asset.ID, err error, events []Event) []Event {
	h.logger.Warn("asset operation failed", "asset", assetID, "error", err)
	events = append(events, Event{Kind: EventAssetFailed, Asset: assetID, Err: err})
	for _, failed := range h.pool.Fail(id) {
		events = append(events, Event{
			Kind:    EventQueryCompleted,
			Request: failed,
			OK:      false,
			Err:     err,
		})
	}
	return events
}

func (h *Hub) dispatch(events []Event) []Event {
	for {
		task, ok := h.pool.Next()
		if !ok {
			return events
		}

		switch task.Command {
		case CommandEnumerate:
			headers := h.headers()
			events = append(events, Event{
				Kind:    EventEnumerated,
				Request: task.ID.Request,
				Headers: headers,
			})
			events = h.taskDone(task.ID, events)

		case CommandRead:
			events = h.dispatchRead(task, events)

		case CommandLoad:
			var sent bool
			events, sent = h.dispatchLoad(task, events)
			if !sent {
				h.pool.Requeue(task.ID)
				return events
			}

		case CommandFree:
			var sent bool
			events, sent = h.dispatchFree(task, events)
			if !sent {
				h.pool.Requeue(task.ID)
				return events
			}

		case CommandJoin:
			events = h.taskDone(task.ID, events)
		}
	}
}

// dispatchRead decodes raw bytes in place on the driver goroutine.
func (h *Hub) dispatchRead(task *Task, events []Event) []Event {
	header, err := h.registry.Header(task.Asset)
	if err != nil {
		return h.failTask(task.ID, task.Asset, err, events)
	}
	raw, ok := h.raw[task.Asset]
	if !ok {
		return h.failTask(task.ID, task.Asset,
			fmt.Errorf("assethub: no raw bytes for %s", task.Asset), events)
	}
	value, err := ir.Unmarshal(raw, header.Type)
	if err != nil {
		return h.failTask(task.ID, task.Asset,
			fmt.Errorf("decoding %s: %w", task.Asset, err), events)
	}
	if err := h.registry.SetIR(task.Asset, value); err != nil {
		return h.failTask(task.ID, task.Asset, err, events)
	}
	return h.taskDone(task.ID, events)
}

// dispatchLoad hands a load to its factory. The bool is false only on
// queue backpressure; precondition violations fail the task instead.
func (h *Hub) dispatchLoad(task *Task, events []Event) ([]Event, bool) {
	header, err := h.registry.Header(task.Asset)
	if err != nil {
		return h.failTask(task.ID, task.Asset, err, events), true
	}
	value, err := h.registry.IR(task.Asset)
	if err != nil {
		return h.failTask(task.ID, task.Asset, err, events), true
	}

	dependencies := make(map[asset.ID]asset.Handle, len(header.Dependencies))
	for _, dep := range header.Dependencies {
		handle, err := h.registry.Handle(dep)
		if err != nil {
			return h.failTask(task.ID, task.Asset,
				fmt.Errorf("dependency %s of %s: %w", dep, task.Asset, err), events), true
		}
		dependencies[dep] = handle
	}

	binding := h.factories[header.Type]
	return events, binding.send(InMessage{
		Kind:         MessageLoad,
		Task:         task.ID,
		ID:           task.Asset,
		Header:       header,
		IR:           value,
		Dependencies: dependencies,
	})
}

func (h *Hub) dispatchFree(task *Task, events []Event) ([]Event, bool) {
	header, err := h.registry.Header(task.Asset)
	if err != nil {
		return h.failTask(task.ID, task.Asset, err, events), true
	}
	handle, err := h.registry.Handle(task.Asset)
	if err != nil {
		return h.failTask(task.ID, task.Asset, err, events), true
	}

	// The factory is about to destroy the object; outstanding borrows
	// here are a consumer bug, detected fatally rather than waited
	// out.
	handle.Discard()

	binding := h.factories[header.Type]
	return events, binding.send(InMessage{
		Kind:   MessageFree,
		Task:   task.ID,
		ID:     task.Asset,
		Header: header,
	})
}

func (h *Hub) headers() []asset.Header {
	ids := h.registry.IDs()
	headers := make([]asset.Header, 0, len(ids))
	for _, id := range ids {
		header, err := h.registry.Header(id)
		if err == nil {
			headers = append(headers, header)
		}
	}
	return headers
}
