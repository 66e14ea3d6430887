// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import (
	"fmt"
	"time"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/asset/ir"
	"github.com/dawn-engine/dawn/lib/clock"
)

// MessageKind discriminates factory queue messages.
type MessageKind uint8

const (
	MessageLoad MessageKind = iota
	MessageFree
)

func (k MessageKind) String() string {
	switch k {
	case MessageLoad:
		return "load"
	case MessageFree:
		return "free"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// InMessage travels hub → factory. A load carries the asset's header,
// its decoded IR, and live handles for every dependency, so the
// factory never reaches back into the registry.
type InMessage struct {
	Kind   MessageKind
	Task   TaskID
	ID     asset.ID
	Header asset.Header

	// Load only.
	IR           ir.IR
	Dependencies map[asset.ID]asset.Handle
}

// OutMessage travels factory → hub: exactly one reply per InMessage.
type OutMessage struct {
	Kind MessageKind
	Task TaskID
	ID   asset.ID

	// Successful load only.
	Handle asset.Handle
	Usage  asset.MemoryUsage

	// Err reports a failed load or free.
	Err error
}

// FactoryBinding is one factory's attachment point: a bounded inbound
// queue owned by the factory and the hub's shared outbound queue.
// The hub creates bindings (see Hub.CreateFactoryBinding); factory
// goroutines consume them.
type FactoryBinding struct {
	assetType asset.Type
	in        *queue[InMessage]
	out       *queue[OutMessage]
}

// AssetType returns the asset type this binding serves.
func (b *FactoryBinding) AssetType() asset.Type {
	return b.assetType
}

// send pushes a message toward the factory. Routing a message whose
// header declares a different type than the binding serves is a
// programming error in the hub's dispatch table, so it panics rather
// than failing softly.
func (b *FactoryBinding) send(message InMessage) bool {
	if message.Header.Type != b.assetType {
		panic(fmt.Sprintf("assethub: %s message for %s asset %s routed to %s factory",
			message.Kind, message.Header.Type, message.ID, b.assetType))
	}
	return b.in.TryPush(message)
}

// Receive polls the inbound queue from the factory side.
func (b *FactoryBinding) Receive() (InMessage, bool) {
	return b.in.TryPop()
}

// Reply posts the factory's response. Returns false under
// backpressure; the factory must retry rather than drop.
func (b *FactoryBinding) Reply(message OutMessage) bool {
	return b.out.TryPush(message)
}

// LoadFunc constructs a factory's native object from a load message.
// It returns the object and its resident memory footprint.
type LoadFunc[T any] func(message InMessage) (T, asset.MemoryUsage, error)

// FreeFunc destroys a previously constructed object.
type FreeFunc[T any] func(value T)

// Factory runs one asset type's construction and destruction on its
// own goroutine. It owns every object it constructs; the handles it
// hands out are borrows, asserted unborrowed before destruction.
type Factory[T any] struct {
	binding *FactoryBinding
	load    LoadFunc[T]
	free    FreeFunc[T]
	clock   clock.Clock
	poll    time.Duration

	storage map[asset.ID]T

	stop chan struct{}
	done chan struct{}
}

// NewFactory wires a factory to its binding. Start must be called to
// begin processing.
func NewFactory[T any](binding *FactoryBinding, load LoadFunc[T], free FreeFunc[T], clk clock.Clock, poll time.Duration) *Factory[T] {
	return &Factory[T]{
		binding: binding,
		load:    load,
		free:    free,
		clock:   clk,
		poll:    poll,
		storage: make(map[asset.ID]T),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the factory goroutine.
func (f *Factory[T]) Start() {
	go f.run()
}

// Stop shuts the factory down and waits for the goroutine to exit.
// Pending messages already in the queue are processed first.
func (f *Factory[T]) Stop() {
	close(f.stop)
	<-f.done
}

func (f *Factory[T]) run() {
	defer close(f.done)
	for {
		message, ok := f.binding.Receive()
		if !ok {
			select {
			case <-f.stop:
				return
			default:
			}
			f.clock.Sleep(f.poll)
			continue
		}
		f.handle(message)
	}
}

func (f *Factory[T]) handle(message InMessage) {
	switch message.Kind {
	case MessageLoad:
		value, usage, err := f.load(message)
		if err != nil {
			f.reply(OutMessage{Kind: MessageLoad, Task: message.Task, ID: message.ID, Err: err})
			return
		}
		f.storage[message.ID] = value
		f.reply(OutMessage{
			Kind:   MessageLoad,
			Task:   message.Task,
			ID:     message.ID,
			Handle: asset.NewHandle(message.Header.Type, value),
			Usage:  usage,
		})

	case MessageFree:
		value, ok := f.storage[message.ID]
		if !ok {
			f.reply(OutMessage{
				Kind: MessageFree,
				Task: message.Task,
				ID:   message.ID,
				Err:  fmt.Errorf("assethub: factory holds no object for %s", message.ID),
			})
			return
		}
		f.free(value)
		delete(f.storage, message.ID)
		f.reply(OutMessage{Kind: MessageFree, Task: message.Task, ID: message.ID})
	}
}

// reply retries under backpressure: each InMessage must produce
// exactly one OutMessage.
func (f *Factory[T]) reply(message OutMessage) {
	for !f.binding.Reply(message) {
		f.clock.Sleep(f.poll)
	}
}
