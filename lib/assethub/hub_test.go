// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/asset/ir"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawBlob(t *testing.T, id asset.ID, text string, deps ...asset.ID) RawAsset {
	t.Helper()
	data, err := ir.Marshal(&ir.Blob{Data: []byte(text)})
	if err != nil {
		t.Fatalf("marshaling blob %s: %v", id, err)
	}
	return RawAsset{
		ID:     id,
		Header: asset.Header{ID: id, Type: asset.TypeBlob, Dependencies: deps},
		IR:     data,
	}
}

// recordingFactory drives a blob binding synchronously on the test
// goroutine, recording operation order.
type recordingFactory struct {
	binding *FactoryBinding
	loaded  []asset.ID
	freed   []asset.ID
	fail    map[asset.ID]error
}

func (f *recordingFactory) serve(t *testing.T) {
	t.Helper()
	for {
		message, ok := f.binding.Receive()
		if !ok {
			return
		}
		switch message.Kind {
		case MessageLoad:
			if err := f.fail[message.ID]; err != nil {
				f.reply(t, OutMessage{Kind: MessageLoad, Task: message.Task, ID: message.ID, Err: err})
				continue
			}
			for dep, handle := range message.Dependencies {
				if !handle.Valid() {
					t.Fatalf("load of %s carried invalid handle for dependency %s", message.ID, dep)
				}
			}
			blob, ok := message.IR.(*ir.Blob)
			if !ok {
				t.Fatalf("load of %s carried %T, want *ir.Blob", message.ID, message.IR)
			}
			f.loaded = append(f.loaded, message.ID)
			f.reply(t, OutMessage{
				Kind:   MessageLoad,
				Task:   message.Task,
				ID:     message.ID,
				Handle: asset.NewHandle(message.Header.Type, blob),
				Usage:  blob.MemoryUsage(),
			})
		case MessageFree:
			f.freed = append(f.freed, message.ID)
			f.reply(t, OutMessage{Kind: MessageFree, Task: message.Task, ID: message.ID})
		}
	}
}

func (f *recordingFactory) reply(t *testing.T, message OutMessage) {
	t.Helper()
	if !f.binding.Reply(message) {
		t.Fatal("reply queue full in synchronous test harness")
	}
}

func newTestHub(t *testing.T, assets ...RawAsset) (*Hub, *recordingFactory) {
	t.Helper()
	byID := make(map[asset.ID]RawAsset, len(assets))
	for _, rawAsset := range assets {
		byID[rawAsset.ID] = rawAsset
	}
	hub := New(byID, NewIDGenerator(), testLogger())
	factory := &recordingFactory{binding: hub.CreateFactoryBinding(asset.TypeBlob)}
	return hub, factory
}

// runUntilComplete pumps the hub and factory until the request
// finishes, returning every event observed along the way.
func runUntilComplete(t *testing.T, hub *Hub, factory *recordingFactory, request RequestID) []Event {
	t.Helper()
	var events []Event
	for i := 0; i < 100; i++ {
		step := hub.Update()
		events = append(events, step...)
		for _, event := range step {
			if event.Kind == EventQueryCompleted && event.Request == request {
				return events
			}
		}
		factory.serve(t)
	}
	t.Fatalf("request %v did not complete; events so far: %+v", request, events)
	return nil
}

func completion(events []Event, request RequestID) (Event, bool) {
	for _, event := range events {
		if event.Kind == EventQueryCompleted && event.Request == request {
			return event, true
		}
	}
	return Event{}, false
}

func TestHubLoadSingleAsset(t *testing.T) {
	hub, factory := newTestHub(t, rawBlob(t, "readme", "hello"))

	request, err := hub.QueryLoad("readme")
	if err != nil {
		t.Fatalf("QueryLoad: %v", err)
	}
	events := runUntilComplete(t, hub, factory, request)

	done, ok := completion(events, request)
	if !ok || !done.OK {
		t.Fatalf("completion = %+v", done)
	}
	var sawLoaded bool
	for _, event := range events {
		if event.Kind == EventAssetLoaded && event.Asset == "readme" {
			sawLoaded = true
		}
	}
	if !sawLoaded {
		t.Fatal("no EventAssetLoaded for readme")
	}

	state, err := hub.State("readme")
	if err != nil || state != StateLoaded {
		t.Fatalf("state = %s (%v), want loaded", state, err)
	}
	blob, err := GetTyped[*ir.Blob](hub, "readme")
	if err != nil {
		t.Fatalf("GetTyped: %v", err)
	}
	if string(blob.Data) != "hello" {
		t.Fatalf("loaded data = %q, want hello", blob.Data)
	}
}

func TestHubLoadOrdersDependenciesFirst(t *testing.T) {
	hub, factory := newTestHub(t,
		rawBlob(t, "tex_a", "aaaa"),
		rawBlob(t, "tex_b", "bbbb"),
		rawBlob(t, "level", "lvl", "tex_a", "tex_b"),
	)

	request, err := hub.QueryLoad("level")
	if err != nil {
		t.Fatalf("QueryLoad: %v", err)
	}
	runUntilComplete(t, hub, factory, request)

	if len(factory.loaded) != 3 {
		t.Fatalf("loaded = %v, want 3 assets", factory.loaded)
	}
	if factory.loaded[2] != "level" {
		t.Fatalf("loaded order = %v, level must come after its dependencies", factory.loaded)
	}
	state, _ := hub.State("tex_a")
	if state != StateLoaded {
		t.Fatal("dependency tex_a not loaded")
	}
}

func TestHubLoadAlreadyLoadedCompletes(t *testing.T) {
	hub, factory := newTestHub(t, rawBlob(t, "readme", "hello"))
	first, _ := hub.QueryLoad("readme")
	runUntilComplete(t, hub, factory, first)

	loads := len(factory.loaded)
	second, err := hub.QueryLoad("readme")
	if err != nil {
		t.Fatalf("QueryLoad on loaded asset: %v", err)
	}
	events := runUntilComplete(t, hub, factory, second)
	if done, ok := completion(events, second); !ok || !done.OK {
		t.Fatalf("completion = %+v", done)
	}
	if len(factory.loaded) != loads {
		t.Fatal("loading an already loaded asset must not reach the factory")
	}
}

func TestHubLoadJoinsInFlightWork(t *testing.T) {
	hub, factory := newTestHub(t, rawBlob(t, "readme", "hello"))

	first, _ := hub.QueryLoad("readme")
	hub.Update() // dispatches the read and the load, no replies yet

	second, err := hub.QueryLoad("readme")
	if err != nil {
		t.Fatalf("QueryLoad while in flight: %v", err)
	}

	events := runUntilComplete(t, hub, factory, second)
	if _, ok := completion(events, first); !ok {
		t.Fatal("first request did not complete")
	}
	if len(factory.loaded) != 1 {
		t.Fatalf("factory loaded %v, the second request must attach, not re-issue", factory.loaded)
	}
}

func TestHubFreeAndReload(t *testing.T) {
	hub, factory := newTestHub(t, rawBlob(t, "readme", "hello"))
	load, _ := hub.QueryLoad("readme")
	runUntilComplete(t, hub, factory, load)

	free, err := hub.QueryFree("readme")
	if err != nil {
		t.Fatalf("QueryFree: %v", err)
	}
	events := runUntilComplete(t, hub, factory, free)

	var sawFreed bool
	for _, event := range events {
		if event.Kind == EventAssetFreed && event.Asset == "readme" {
			sawFreed = true
		}
	}
	if !sawFreed {
		t.Fatal("no EventAssetFreed for readme")
	}
	if state, _ := hub.State("readme"); state != StateEmpty {
		t.Fatalf("state after free = %s, want empty", state)
	}
	if len(factory.freed) != 1 || factory.freed[0] != "readme" {
		t.Fatalf("freed = %v", factory.freed)
	}

	// The raw bytes are still imported; loading again re-reads them.
	reload, err := hub.QueryLoad("readme")
	if err != nil {
		t.Fatalf("QueryLoad after free: %v", err)
	}
	runUntilComplete(t, hub, factory, reload)
	if state, _ := hub.State("readme"); state != StateLoaded {
		t.Fatal("asset did not reload after a free")
	}
}

func TestHubFreeRejectedWhileDependedOn(t *testing.T) {
	hub, factory := newTestHub(t,
		rawBlob(t, "tex_a", "aaaa"),
		rawBlob(t, "level", "lvl", "tex_a"),
	)
	load, _ := hub.QueryLoad("level")
	runUntilComplete(t, hub, factory, load)

	if _, err := hub.QueryFree("tex_a"); !errors.Is(err, ErrAssetInUse) {
		t.Fatalf("QueryFree(tex_a) error = %v, want ErrAssetInUse", err)
	}
	// Freeing the dependent first unblocks the dependency.
	free, err := hub.QueryFree("level")
	if err != nil {
		t.Fatalf("QueryFree(level): %v", err)
	}
	runUntilComplete(t, hub, factory, free)
	if _, err := hub.QueryFree("tex_a"); err != nil {
		t.Fatalf("QueryFree(tex_a) after dependent freed: %v", err)
	}
}

func TestHubFreeRejectedWhileInFlight(t *testing.T) {
	hub, _ := newTestHub(t, rawBlob(t, "readme", "hello"))
	if _, err := hub.QueryLoad("readme"); err != nil {
		t.Fatalf("QueryLoad: %v", err)
	}
	if _, err := hub.QueryFree("readme"); err == nil {
		t.Fatal("QueryFree during an in-flight load should fail")
	}
}

func TestHubFreeAllDestroysDependentsFirst(t *testing.T) {
	hub, factory := newTestHub(t,
		rawBlob(t, "tex_a", "aaaa"),
		rawBlob(t, "tex_b", "bbbb"),
		rawBlob(t, "level", "lvl", "tex_a", "tex_b"),
	)
	load, _ := hub.QueryLoadAll()
	runUntilComplete(t, hub, factory, load)

	free, err := hub.QueryFreeAll()
	if err != nil {
		t.Fatalf("QueryFreeAll: %v", err)
	}
	runUntilComplete(t, hub, factory, free)

	if len(factory.freed) != 3 {
		t.Fatalf("freed = %v, want all 3", factory.freed)
	}
	if factory.freed[0] != "level" {
		t.Fatalf("freed order = %v, the dependent must be destroyed first", factory.freed)
	}
	for _, id := range []asset.ID{"tex_a", "tex_b", "level"} {
		if state, _ := hub.State(id); state != StateEmpty {
			t.Fatalf("%s state = %s after free all", id, state)
		}
	}
}

func TestHubLoadFailurePropagates(t *testing.T) {
	hub, factory := newTestHub(t,
		rawBlob(t, "tex_a", "aaaa"),
		rawBlob(t, "level", "lvl", "tex_a"),
	)
	factory.fail = map[asset.ID]error{"tex_a": errors.New("gpu upload failed")}

	request, err := hub.QueryLoad("level")
	if err != nil {
		t.Fatalf("QueryLoad: %v", err)
	}

	var events []Event
	for i := 0; i < 100; i++ {
		events = append(events, hub.Update()...)
		if done, ok := completion(events, request); ok {
			if done.OK || done.Err == nil {
				t.Fatalf("completion = %+v, want failure", done)
			}
			break
		}
		factory.serve(t)
		if i == 99 {
			t.Fatal("request never completed")
		}
	}

	var sawFailed bool
	for _, event := range events {
		if event.Kind == EventAssetFailed && event.Asset == "tex_a" {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Fatal("no EventAssetFailed for tex_a")
	}
	if state, _ := hub.State("level"); state == StateLoaded {
		t.Fatal("level must not load after its dependency failed")
	}

	// The failure released all claims, so a retry is possible.
	factory.fail = nil
	retry, err := hub.QueryLoad("level")
	if err != nil {
		t.Fatalf("retry QueryLoad: %v", err)
	}
	runUntilComplete(t, hub, factory, retry)
	if state, _ := hub.State("level"); state != StateLoaded {
		t.Fatal("retry after failure did not load")
	}
}

func TestHubFailedRequestHoldsDispatchedSiblings(t *testing.T) {
	hub, factory := newTestHub(t,
		rawBlob(t, "tex_a", "aaaa"),
		rawBlob(t, "tex_b", "bbbb"),
	)

	request, err := hub.QueryLoadAll()
	if err != nil {
		t.Fatalf("QueryLoadAll: %v", err)
	}

	// One update dispatches both loads to the factory queue.
	hub.Update()
	received := make(map[asset.ID]InMessage, 2)
	for i := 0; i < 2; i++ {
		message, ok := factory.binding.Receive()
		if !ok {
			t.Fatalf("received %d load messages, want 2", i)
		}
		received[message.ID] = message
	}

	// tex_a fails while tex_b's load is still in the factory's
	// hands.
	failure := received["tex_a"]
	factory.reply(t, OutMessage{Kind: MessageLoad, Task: failure.Task, ID: failure.ID,
		Err: errors.New("gpu upload failed")})
	events := hub.Update()
	if done, ok := completion(events, request); !ok || done.OK {
		t.Fatalf("completion = %+v, want failure", done)
	}

	// tex_b's claim must survive the cascade: a new query may not
	// issue a second load while the factory still owes its reply.
	if _, err := hub.QueryLoad("tex_b"); !errors.Is(err, ErrAssetBusy) {
		t.Fatalf("QueryLoad(tex_b) error = %v, want ErrAssetBusy", err)
	}
	if message, ok := factory.binding.Receive(); ok {
		t.Fatalf("duplicate dispatch while a load is outstanding: %+v", message)
	}

	// The outstanding reply settles the claim and lands in the
	// registry without completing anything.
	pending := received["tex_b"]
	blob := pending.IR.(*ir.Blob)
	factory.reply(t, OutMessage{Kind: MessageLoad, Task: pending.Task, ID: pending.ID,
		Handle: asset.NewHandle(pending.Header.Type, blob), Usage: blob.MemoryUsage()})
	events = hub.Update()
	for _, event := range events {
		if event.Kind == EventQueryCompleted {
			t.Fatalf("orphaned reply completed a request: %+v", event)
		}
	}
	if state, _ := hub.State("tex_b"); state != StateLoaded {
		t.Fatalf("tex_b state = %s, want loaded", state)
	}
	if !hub.pool.Empty() {
		t.Fatal("pool should be empty once the orphaned reply settles")
	}

	retry, err := hub.QueryLoad("tex_b")
	if err != nil {
		t.Fatalf("QueryLoad(tex_b) after settle: %v", err)
	}
	runUntilComplete(t, hub, factory, retry)
	if len(factory.loaded) != 0 {
		t.Fatalf("factory loaded %v, want no re-load of a loaded asset", factory.loaded)
	}
}

func TestHubUnexpectedReplyFailsInsteadOfLoading(t *testing.T) {
	hub, _ := newTestHub(t, rawBlob(t, "readme", "hello"))

	// A load reply for an asset still in the empty state cannot be
	// applied; it must surface as a failure, not a loaded event.
	hub.out.TryPush(OutMessage{
		Kind:   MessageLoad,
		Task:   TaskID{Request: 42, Seq: 7},
		ID:     "readme",
		Handle: asset.NewHandle(asset.TypeBlob, &ir.Blob{Data: []byte("hello")}),
	})
	events := hub.Update()

	var sawFailed bool
	for _, event := range events {
		if event.Kind == EventAssetLoaded {
			t.Fatalf("rejected transition reported as loaded: %+v", event)
		}
		if event.Kind == EventAssetFailed && event.Asset == "readme" {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Fatal("no EventAssetFailed for the rejected reply")
	}
	if state, _ := hub.State("readme"); state != StateEmpty {
		t.Fatalf("readme state = %s, want empty", state)
	}
}

func TestHubLoadWithoutResidentIRFailsRequest(t *testing.T) {
	hub, _ := newTestHub(t, rawBlob(t, "readme", "hello"))

	// A bare load with no read before it violates the dispatch
	// precondition; the request must fail rather than hang.
	request := hub.ids.NextRequest()
	task := NewTask(hub.ids.NextTask(request), CommandLoad, "readme")
	hub.pool.AddRequest(request, []*Task{task})

	events := hub.Update()
	done, ok := completion(events, request)
	if !ok {
		t.Fatalf("request never completed; events: %+v", events)
	}
	if done.OK || done.Err == nil {
		t.Fatalf("completion = %+v, want failure", done)
	}
	if !hub.pool.Empty() {
		t.Fatal("failed request left tasks in the pool")
	}
	if _, busy := hub.pool.InFlight("readme"); busy {
		t.Fatal("failed dispatch leaked an in-flight claim")
	}
}

func TestHubCircularDependencyRejected(t *testing.T) {
	hub, _ := newTestHub(t,
		rawBlob(t, "a", "aaaa", "b"),
		rawBlob(t, "b", "bbbb", "a"),
	)
	if _, err := hub.QueryLoad("a"); !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("QueryLoad error = %v, want ErrCircularDependency", err)
	}
}

func TestHubMissingFactoryRejected(t *testing.T) {
	notes, err := ir.Marshal(&ir.Notes{Text: "draft"})
	if err != nil {
		t.Fatal(err)
	}
	hub, _ := newTestHub(t, RawAsset{
		ID:     "credits",
		Header: asset.Header{ID: "credits", Type: asset.TypeNotes},
		IR:     notes,
	})
	if _, err := hub.QueryLoad("credits"); !errors.Is(err, ErrFactoryNotFound) {
		t.Fatalf("QueryLoad error = %v, want ErrFactoryNotFound", err)
	}
}

func TestHubEnumerate(t *testing.T) {
	hub, factory := newTestHub(t,
		rawBlob(t, "readme", "hello"),
		rawBlob(t, "credits", "names"),
	)
	request := hub.QueryEnumerate()
	events := runUntilComplete(t, hub, factory, request)

	var headers []asset.Header
	for _, event := range events {
		if event.Kind == EventEnumerated && event.Request == request {
			headers = event.Headers
		}
	}
	if len(headers) != 2 {
		t.Fatalf("enumerated %d headers, want 2", len(headers))
	}
}

func TestHubBorrowedHandleBlocksFree(t *testing.T) {
	hub, factory := newTestHub(t, rawBlob(t, "readme", "hello"))
	load, _ := hub.QueryLoad("readme")
	runUntilComplete(t, hub, factory, load)

	handle, err := hub.Get("readme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	handle.Acquire()

	if _, err := hub.QueryFree("readme"); err != nil {
		t.Fatalf("QueryFree: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("freeing a borrowed asset should panic")
		}
		handle.Release()
	}()
	hub.Update()
}

func TestHubBackpressureRetriesWithoutLoss(t *testing.T) {
	var assets []RawAsset
	ids := make([]asset.ID, 0, queueCapacity+20)
	for i := 0; i < queueCapacity+20; i++ {
		id := asset.ID(fmt.Sprintf("blob_%03d", i))
		ids = append(ids, id)
		assets = append(assets, rawBlob(t, id, "payload"))
	}
	hub, factory := newTestHub(t, assets...)

	request, err := hub.QueryLoadAll()
	if err != nil {
		t.Fatalf("QueryLoadAll: %v", err)
	}
	runUntilComplete(t, hub, factory, request)

	for _, id := range ids {
		if state, _ := hub.State(id); state != StateLoaded {
			t.Fatalf("%s state = %s, some dispatches were dropped", id, state)
		}
	}
}

func TestHubDuplicateFactoryBindingPanics(t *testing.T) {
	hub, _ := newTestHub(t)
	defer func() {
		if recover() == nil {
			t.Fatal("second binding for the same type should panic")
		}
	}()
	hub.CreateFactoryBinding(asset.TypeBlob)
}

func TestHubInfos(t *testing.T) {
	hub, factory := newTestHub(t,
		rawBlob(t, "readme", "hello"),
		rawBlob(t, "credits", "names"),
	)
	load, _ := hub.QueryLoad("readme")
	runUntilComplete(t, hub, factory, load)

	infos := hub.Infos()
	if len(infos) != 2 {
		t.Fatalf("Infos = %+v, want 2 entries", infos)
	}
	// Sorted by ID: credits before readme.
	if infos[0].ID != "credits" || infos[0].State != StateEmpty {
		t.Fatalf("infos[0] = %+v", infos[0])
	}
	if infos[1].ID != "readme" || infos[1].State != StateLoaded {
		t.Fatalf("infos[1] = %+v", infos[1])
	}
	if infos[1].Usage.CPU != len("hello") {
		t.Fatalf("readme usage = %+v", infos[1].Usage)
	}
}
