// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import "testing"

func TestQueueBoundedPushPop(t *testing.T) {
	q := newQueue[int](3)

	for i := 0; i < 3; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d rejected below capacity", i)
		}
	}
	if q.TryPush(3) {
		t.Fatal("push accepted at capacity")
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}

	for i := 0; i < 3; i++ {
		value, ok := q.TryPop()
		if !ok {
			t.Fatalf("pop %d failed", i)
		}
		if value != i {
			t.Fatalf("pop %d = %d, FIFO order broken", i, value)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("pop succeeded on empty queue")
	}
}

func TestIDGeneratorSequences(t *testing.T) {
	gen := NewIDGenerator()

	first := gen.NextRequest()
	second := gen.NextRequest()
	if first == second {
		t.Fatal("request IDs repeat")
	}
	if first == 0 || second == 0 {
		t.Fatal("zero is reserved, never issued as a request ID")
	}

	taskA := gen.NextTask(first)
	taskB := gen.NextTask(first)
	taskC := gen.NextTask(second)
	if taskA == taskB {
		t.Fatal("task IDs repeat within a request")
	}
	if taskA.Request != first || taskB.Request != first || taskC.Request != second {
		t.Fatal("task IDs must carry their owning request")
	}
	if taskA == (TaskID{}) {
		t.Fatal("zero is reserved, never issued as a task ID")
	}
}
