// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

// queueCapacity bounds each direction of a factory binding. A full
// queue signals backpressure to the producer; messages are never
// dropped.
const queueCapacity = 100

// queue is a bounded multi-producer multi-consumer queue with
// non-blocking operations on both ends.
type queue[T any] struct {
	ch chan T
}

func newQueue[T any](capacity int) *queue[T] {
	return &queue[T]{ch: make(chan T, capacity)}
}

// TryPush enqueues value, or returns false when the queue is full.
func (q *queue[T]) TryPush(value T) bool {
	select {
	case q.ch <- value:
		return true
	default:
		return false
	}
}

// TryPop dequeues one value, or returns false when the queue is
// empty.
func (q *queue[T]) TryPop() (T, bool) {
	select {
	case value := <-q.ch:
		return value, true
	default:
		var zero T
		return zero, false
	}
}

func (q *queue[T]) Len() int {
	return len(q.ch)
}
