// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import "testing"

func TestPoolDispatchRespectsDependencies(t *testing.T) {
	pool := NewQueryPool()
	gen := NewIDGenerator()
	request := gen.NextRequest()

	readTex := NewTask(gen.NextTask(request), CommandRead, "tex")
	loadTex := NewTask(gen.NextTask(request), CommandLoad, "tex", readTex.ID)
	loadLevel := NewTask(gen.NextTask(request), CommandLoad, "level", loadTex.ID)
	pool.AddRequest(request, []*Task{readTex, loadTex, loadLevel})

	task, ok := pool.Next()
	if !ok || task.ID != readTex.ID {
		t.Fatalf("first dispatch = %v, want the read", task)
	}
	if _, ok := pool.Next(); ok {
		t.Fatal("dependent tasks dispatched before their dependency settled")
	}

	if _, completed := pool.Done(readTex.ID); completed {
		t.Fatal("request reported complete with tasks outstanding")
	}
	task, ok = pool.Next()
	if !ok || task.ID != loadTex.ID {
		t.Fatalf("second dispatch = %v, want the tex load", task)
	}
	pool.Done(loadTex.ID)

	task, ok = pool.Next()
	if !ok || task.ID != loadLevel.ID {
		t.Fatalf("third dispatch = %v, want the level load", task)
	}
	request2, completed := pool.Done(loadLevel.ID)
	if !completed || request2 != request {
		t.Fatalf("Done = (%v, %v), want request completion", request2, completed)
	}
	if !pool.Empty() {
		t.Fatal("pool should be empty after the request completes")
	}
}

func TestPoolInFlightTracking(t *testing.T) {
	pool := NewQueryPool()
	gen := NewIDGenerator()
	request := gen.NextRequest()

	read := NewTask(gen.NextTask(request), CommandRead, "tex")
	load := NewTask(gen.NextTask(request), CommandLoad, "tex", read.ID)
	pool.AddRequest(request, []*Task{read, load})

	// The later task claims the asset, so attachers wait for the
	// whole chain, not just the read.
	taskID, ok := pool.InFlight("tex")
	if !ok || taskID != load.ID {
		t.Fatalf("InFlight = (%v, %v), want the load task", taskID, ok)
	}

	pool.Next()
	pool.Done(read.ID)
	if _, ok := pool.InFlight("tex"); !ok {
		t.Fatal("read completion must not release the load's claim")
	}

	pool.Next()
	pool.Done(load.ID)
	if _, ok := pool.InFlight("tex"); ok {
		t.Fatal("claim should be released once the load completes")
	}
}

func TestPoolRequeue(t *testing.T) {
	pool := NewQueryPool()
	gen := NewIDGenerator()
	request := gen.NextRequest()

	task := NewTask(gen.NextTask(request), CommandLoad, "tex")
	pool.AddRequest(request, []*Task{task})

	got, ok := pool.Next()
	if !ok {
		t.Fatal("task not dispatchable")
	}
	if _, ok := pool.Next(); ok {
		t.Fatal("processing task dispatched twice")
	}

	pool.Requeue(got.ID)
	again, ok := pool.Next()
	if !ok || again.ID != task.ID {
		t.Fatal("requeued task should dispatch again")
	}
}

func TestPoolCrossRequestRelease(t *testing.T) {
	pool := NewQueryPool()
	gen := NewIDGenerator()

	first := gen.NextRequest()
	shared := NewTask(gen.NextTask(first), CommandLoad, "tex")
	pool.AddRequest(first, []*Task{shared})

	second := gen.NextRequest()
	attached := NewTask(gen.NextTask(second), CommandJoin, "", shared.ID)
	pool.AddRequest(second, []*Task{attached})

	pool.Next()
	if _, completed := pool.Done(shared.ID); !completed {
		t.Fatal("first request should complete")
	}

	task, ok := pool.Next()
	if !ok || task.ID != attached.ID {
		t.Fatal("foreign completion should release the attached task")
	}
	if request, completed := pool.Done(attached.ID); !completed || request != second {
		t.Fatal("second request should complete after its join settles")
	}
}

func TestPoolFailCascades(t *testing.T) {
	pool := NewQueryPool()
	gen := NewIDGenerator()

	first := gen.NextRequest()
	loadTex := NewTask(gen.NextTask(first), CommandLoad, "tex")
	loadLevel := NewTask(gen.NextTask(first), CommandLoad, "level", loadTex.ID)
	pool.AddRequest(first, []*Task{loadTex, loadLevel})

	// A second request rides on the first's tex load.
	second := gen.NextRequest()
	join := NewTask(gen.NextTask(second), CommandJoin, "", loadTex.ID)
	pool.AddRequest(second, []*Task{join})

	// An unrelated third request must survive.
	third := gen.NextRequest()
	other := NewTask(gen.NextTask(third), CommandLoad, "audio")
	pool.AddRequest(third, []*Task{other})

	pool.Next()
	failed := pool.Fail(loadTex.ID)
	if len(failed) != 2 {
		t.Fatalf("failed requests = %v, want the first two", failed)
	}
	seen := map[RequestID]bool{}
	for _, id := range failed {
		seen[id] = true
	}
	if !seen[first] || !seen[second] || seen[third] {
		t.Fatalf("failed requests = %v, want exactly [%v %v]", failed, first, second)
	}

	if _, ok := pool.InFlight("tex"); ok {
		t.Fatal("failed tasks must release their in-flight claims")
	}
	if _, ok := pool.InFlight("level"); ok {
		t.Fatal("failed tasks must release their in-flight claims")
	}
	if task, ok := pool.Next(); !ok || task.ID != other.ID {
		t.Fatal("unrelated request should still dispatch")
	}
}

func TestPoolFailKeepsProcessingClaims(t *testing.T) {
	pool := NewQueryPool()
	gen := NewIDGenerator()
	request := gen.NextRequest()

	loadTex := NewTask(gen.NextTask(request), CommandLoad, "tex")
	loadAudio := NewTask(gen.NextTask(request), CommandLoad, "audio")
	pool.AddRequest(request, []*Task{loadTex, loadAudio})

	// Both loads dispatched; the factory now owes a reply for each.
	pool.Next()
	pool.Next()

	failed := pool.Fail(loadTex.ID)
	if len(failed) != 1 || failed[0] != request {
		t.Fatalf("failed requests = %v, want [%v]", failed, request)
	}

	// The failing task's own claim is released immediately.
	if _, ok := pool.InFlight("tex"); ok {
		t.Fatal("failing task must release its claim")
	}
	// The sibling's claim survives until its reply lands, so no
	// second load for the same asset can be issued in the meantime.
	taskID, ok := pool.InFlight("audio")
	if !ok || taskID != loadAudio.ID {
		t.Fatalf("InFlight(audio) = (%v, %v), want the dispatched load", taskID, ok)
	}

	if !pool.Release(loadAudio.ID) {
		t.Fatal("Release should report the dispatched sibling as orphaned")
	}
	if _, ok := pool.InFlight("audio"); ok {
		t.Fatal("claim should be gone once the reply settles it")
	}
	if pool.Release(loadAudio.ID) {
		t.Fatal("Release must settle an orphan at most once")
	}
}
