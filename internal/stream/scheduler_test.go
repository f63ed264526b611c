package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// blockingGenerator parks every Generate call until the test releases it,
// so tests control completion order precisely.
type blockingGenerator struct {
	mu       sync.Mutex
	calls    map[TileID]int
	gates    map[TileID]chan struct{}
	failures map[TileID]error
	produced map[TileID]*fakeResource
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{
		calls:    make(map[TileID]int),
		gates:    make(map[TileID]chan struct{}),
		failures: make(map[TileID]error),
		produced: make(map[TileID]*fakeResource),
	}
}

// gateFor returns the id's permit channel. Generate consumes one permit
// per call and release deposits one, so the two may run in either order.
func (g *blockingGenerator) gateFor(id TileID) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate, ok := g.gates[id]
	if !ok {
		gate = make(chan struct{}, 16)
		g.gates[id] = gate
	}
	return gate
}

func (g *blockingGenerator) Generate(ctx context.Context, x, y, resolution int) (Resource, error) {
	id := TileID{X: x, Y: y, Resolution: resolution}

	g.mu.Lock()
	g.calls[id]++
	g.mu.Unlock()

	<-g.gateFor(id)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failures[id]; err != nil {
		return nil, err
	}
	res := &fakeResource{}
	g.produced[id] = res
	return res, nil
}

func (g *blockingGenerator) release(id TileID) {
	g.gateFor(id) <- struct{}{}
}

func (g *blockingGenerator) callCount(id TileID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[id]
}

func (g *blockingGenerator) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *blockingGenerator) producedResource(id TileID) *fakeResource {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.produced[id]
}

func (g *blockingGenerator) failWith(id TileID, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[id] = err
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func tileID(x, y int) TileID {
	return TileID{X: x, Y: y, Resolution: 256}
}

func TestSchedulerDedup(t *testing.T) {
	gen := newBlockingGenerator()
	cache, _ := newTestCache(t, 100)
	s := NewScheduler(cache, gen, 3, nil)

	id := tileID(0, 0)
	if !s.Request(context.Background(), id) {
		t.Fatal("first request should dispatch")
	}
	if s.Request(context.Background(), id) {
		t.Fatal("second request for an in-flight tile must be a no-op")
	}

	waitFor(t, "generate call", func() bool { return gen.callCount(id) > 0 })
	if gen.callCount(id) != 1 {
		t.Errorf("generate called %d times, want 1", gen.callCount(id))
	}

	rec, ok := cache.Get(id)
	if !ok || rec.Status != StatusGenerating {
		t.Fatal("exactly one generating record expected")
	}

	gen.release(id)
	s.Wait()

	if rec, _ := cache.Get(id); rec == nil || rec.Status != StatusReady {
		t.Error("record should be ready after completion")
	}
	if s.Request(context.Background(), id) {
		t.Error("request for a ready tile must be a no-op")
	}
}

func TestSchedulerConcurrencyBound(t *testing.T) {
	gen := newBlockingGenerator()
	cache, _ := newTestCache(t, 100)
	s := NewScheduler(cache, gen, 3, nil)

	ids := []TileID{tileID(0, 0), tileID(1, 0), tileID(2, 0), tileID(3, 0), tileID(4, 0)}
	dispatched := 0
	for _, id := range ids {
		if s.Request(context.Background(), id) {
			dispatched++
		}
	}

	if dispatched != 3 {
		t.Fatalf("dispatched = %d, want 3 (the concurrency bound)", dispatched)
	}
	if s.InFlight() != 3 {
		t.Fatalf("in flight = %d, want 3", s.InFlight())
	}
	if cache.Len() != 3 {
		t.Fatalf("cache len = %d, want 3 generating records", cache.Len())
	}
	if _, ok := cache.Get(ids[3]); ok {
		t.Error("over-bound request must leave the tile not requested")
	}

	gen.release(ids[0])
	waitFor(t, "slot to free", func() bool { return s.InFlight() == 2 })

	// The next pass re-issues the dropped requests; exactly one more fits.
	if !s.Request(context.Background(), ids[3]) {
		t.Fatal("freed slot should accept a new request")
	}
	if rec, ok := cache.Get(ids[3]); !ok || rec.Status != StatusGenerating {
		t.Error("re-issued request should create a generating record")
	}

	for _, id := range ids[1:4] {
		gen.release(id)
	}
	s.Wait()
}

func TestSchedulerFailureDropsAndAllowsRetry(t *testing.T) {
	gen := newBlockingGenerator()
	cache, _ := newTestCache(t, 100)
	s := NewScheduler(cache, gen, 3, nil)

	id := tileID(7, 7)
	gen.failWith(id, errors.New("coordinate noise pipeline exploded"))

	s.Request(context.Background(), id)
	gen.release(id)
	s.Wait()

	if _, ok := cache.Get(id); ok {
		t.Fatal("failed generation must remove the generating record")
	}

	// Opportunistic retry on the next pass.
	gen.failWith(id, nil)
	if !s.Request(context.Background(), id) {
		t.Fatal("tile should be requestable again after a failure")
	}
	gen.release(id)
	s.Wait()

	if rec, _ := cache.Get(id); rec == nil || rec.Status != StatusReady {
		t.Error("retried generation should complete normally")
	}
	if gen.callCount(id) != 2 {
		t.Errorf("generate called %d times, want 2", gen.callCount(id))
	}
}

func TestSchedulerStaleResultDiscarded(t *testing.T) {
	gen := newBlockingGenerator()
	cache, _ := newTestCache(t, 100)
	s := NewScheduler(cache, gen, 3, nil)

	id := tileID(0, 0)
	s.Request(context.Background(), id)
	waitFor(t, "generate call", func() bool { return gen.callCount(id) > 0 })

	// Tile leaves the cached ring while its generation is in flight.
	cache.Remove(id)

	gen.release(id)
	s.Wait()

	if _, ok := cache.Get(id); ok {
		t.Fatal("stale result must not reappear in the cache")
	}
	res := gen.producedResource(id)
	if res == nil || res.disposedCount() != 1 {
		t.Error("stale result's resource must be disposed exactly once")
	}
}

func TestSchedulerStaleTokenAfterReRequest(t *testing.T) {
	gen := newBlockingGenerator()
	cache, _ := newTestCache(t, 100)
	s := NewScheduler(cache, gen, 3, nil)

	id := tileID(0, 0)
	s.Request(context.Background(), id)
	waitFor(t, "first generate call", func() bool { return gen.callCount(id) == 1 })

	// Purge and immediately re-request: a second flight starts for the
	// same tile while the first is still parked.
	cache.Remove(id)
	s.Request(context.Background(), id)
	waitFor(t, "second generate call", func() bool { return gen.callCount(id) == 2 })

	// Complete both. Whichever is the superseded flight must be rejected
	// by the token check and the record must end up ready exactly once.
	gen.release(id)
	gen.release(id)
	s.Wait()

	rec, ok := cache.Get(id)
	if !ok || rec.Status != StatusReady {
		t.Fatal("record should be ready after the second flight completes")
	}
}

func TestSchedulerReadyHook(t *testing.T) {
	gen := newBlockingGenerator()
	cache, _ := newTestCache(t, 100)
	s := NewScheduler(cache, gen, 3, nil)

	var mu sync.Mutex
	var readyIDs []TileID
	s.SetReadyHook(func(id TileID) {
		mu.Lock()
		defer mu.Unlock()
		readyIDs = append(readyIDs, id)
	})

	id := tileID(2, 3)
	s.Request(context.Background(), id)
	gen.release(id)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(readyIDs) != 1 || readyIDs[0] != id {
		t.Errorf("ready hook calls = %v, want exactly [%v]", readyIDs, id)
	}
}
