package stream

import (
	"context"
	"sync"
	"time"

	"github.com/jaennil/terrain_streamer/pkg/logger"
	"github.com/jaennil/terrain_streamer/pkg/metrics"
)

// Generator produces the pixel content for one tile. Implementations may be
// slow and may fail; the scheduler treats them as opaque.
type Generator interface {
	Generate(ctx context.Context, tileX, tileY, resolution int) (Resource, error)
}

// Scheduler deduplicates and rate limits asynchronous tile generation.
// Requests for tiles that are already ready or already in flight are
// no-ops, and at most maxInFlight generations run concurrently. Requests
// rejected by the bound are not queued; the next matrix pass re-issues them
// if the tile is still wanted.
type Scheduler struct {
	mu          sync.Mutex
	gen         Generator
	inFlight    int
	maxInFlight int
	nextToken   uint64

	cache   *Cache
	onReady func(TileID)
	log     logger.Logger
	wg      sync.WaitGroup
}

func NewScheduler(cache *Cache, gen Generator, maxInFlight int, l logger.Logger) *Scheduler {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	if l == nil {
		l = logger.NewNoOp()
	}
	return &Scheduler{
		gen:         gen,
		maxInFlight: maxInFlight,
		cache:       cache,
		log:         l,
	}
}

// SetReadyHook installs the callback invoked, outside any scheduler or
// cache lock, after a record transitions to ready.
func (s *Scheduler) SetReadyHook(fn func(TileID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReady = fn
}

// SetGenerator swaps the generator used for subsequent requests. In-flight
// generations keep the old one; their results are discarded by the
// per-request token check once the caller purges the cache.
func (s *Scheduler) SetGenerator(gen Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen = gen
}

func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Wait blocks until every in-flight generation has completed.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Request asks for a tile to be generated. It reports whether a generation
// was actually dispatched.
func (s *Scheduler) Request(ctx context.Context, id TileID) bool {
	if rec, ok := s.cache.Get(id); ok {
		if rec.Status == StatusReady {
			s.cache.Touch(id)
		}
		return false
	}

	s.mu.Lock()
	if s.inFlight >= s.maxInFlight {
		s.mu.Unlock()
		return false
	}
	s.inFlight++
	s.nextToken++
	token := s.nextToken
	gen := s.gen
	onReady := s.onReady
	s.mu.Unlock()

	s.cache.Put(&Record{
		ID:     id,
		Status: StatusGenerating,
		token:  token,
	})

	metrics.GenerationsStarted.Inc()
	metrics.GenerationsInFlight.Inc()

	s.wg.Add(1)
	go s.generate(ctx, id, token, gen, onReady)
	return true
}

func (s *Scheduler) generate(ctx context.Context, id TileID, token uint64, gen Generator, onReady func(TileID)) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
		metrics.GenerationsInFlight.Dec()
	}()

	start := time.Now()
	res, err := gen.Generate(ctx, id.X, id.Y, id.Resolution)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		// Drop the record; the next matrix pass re-requests the tile if it
		// is still within fetch range.
		s.cache.completeFailure(id, token)
		metrics.GenerationFailures.Inc()
		s.log.Error("tile generation failed", "tile", id.String(), "error", err)
		return
	}

	if !s.cache.completeReady(id, token, res) {
		// Purged or superseded mid-flight: the result is stale and the
		// cache never took ownership, so dispose it here.
		metrics.StaleResultsDiscarded.Inc()
		s.log.Debug("discarding stale generation result", "tile", id.String())
		if err := res.Dispose(); err != nil {
			s.log.Error("failed to dispose stale tile resource", "tile", id.String(), "error", err)
		}
		return
	}

	if onReady != nil {
		onReady(id)
	}
}
