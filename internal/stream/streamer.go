package stream

import (
	"context"
	"sync"
	"time"

	"github.com/jaennil/terrain_streamer/pkg/logger"
	"github.com/jaennil/terrain_streamer/pkg/metrics"
)

// Config carries the numeric knobs of the streaming engine.
type Config struct {
	Zones                    Zones
	MaxConcurrentGenerations int
	CacheSizeLimit           int
	Resolution               int
	MovementSensitivity      float64
	PanelBoundary            float64
	SnapDebounce             time.Duration
}

func DefaultConfig() Config {
	return Config{
		Zones:                    DefaultZones(),
		MaxConcurrentGenerations: 3,
		CacheSizeLimit:           81,
		Resolution:               256,
		MovementSensitivity:      1,
		PanelBoundary:            0.5,
		SnapDebounce:             100 * time.Millisecond,
	}
}

// Streamer is the orchestrator: it owns the position tracker, the tile
// cache, the generation scheduler and the render plane binding, and runs
// the matrix update pass after every boundary crossing.
//
// All engine state lives in this one struct and is guarded by its mutex;
// generation workers re-enter through the same locks when they complete.
type Streamer struct {
	mu      sync.Mutex
	cfg     Config
	log     logger.Logger
	cache   *Cache
	tracker *Tracker
	sched   *Scheduler
	binder  Binder

	// center mirrors the tracker's center tile for the cache evict hook,
	// which runs under the cache lock and must not touch the tracker.
	center Coord
}

func New(cfg Config, gen Generator, binder Binder, l logger.Logger) *Streamer {
	if l == nil {
		l = logger.NewNoOp()
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 3
	}
	if cfg.CacheSizeLimit <= 0 {
		cfg.CacheSizeLimit = 81
	}
	if cfg.Resolution <= 0 {
		cfg.Resolution = 256
	}
	if cfg.Zones == (Zones{}) {
		cfg.Zones = DefaultZones()
	}
	if binder == nil {
		binder = NewRenderPlane(2*cfg.Zones.Render + 1)
	}

	s := &Streamer{
		cfg:     cfg,
		log:     l,
		cache:   NewCache(cfg.CacheSizeLimit, l),
		tracker: NewTracker(cfg.MovementSensitivity, cfg.PanelBoundary, cfg.SnapDebounce),
		binder:  binder,
	}
	s.sched = NewScheduler(s.cache, gen, cfg.MaxConcurrentGenerations, l)
	s.sched.SetReadyHook(s.handleReady)
	s.cache.SetEvictHook(s.unbindEvicted)
	return s
}

// Pan feeds a pointer-drag delta into the engine. Sub-tile motion only
// moves the pan offset; a boundary crossing advances the center tile and
// triggers a matrix update pass.
func (s *Streamer) Pan(ctx context.Context, dx, dy float64) (Shift, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, crossed := s.tracker.ApplyDelta(dx, dy)
	if !crossed {
		return Shift{}, false
	}

	metrics.PanelShifts.Inc()
	s.log.Debug("panel shift",
		"dx", shift.DX, "dy", shift.DY,
		"center_x", s.tracker.Center().X, "center_y", s.tracker.Center().Y)

	s.updateMatrix(ctx)
	return shift, true
}

// Refresh runs a matrix update pass without moving: used at startup and
// whenever the generated content changed out from under the engine.
func (s *Streamer) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateMatrix(ctx)
}

// SetGenerator swaps the tile generator. Every cached tile is stale at that
// point: the cache is purged, in-flight results are invalidated by their
// request tokens, and the surrounding tiles are regenerated.
func (s *Streamer) SetGenerator(ctx context.Context, gen Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sched.SetGenerator(gen)
	s.binder.Reset()
	purged := s.cache.PurgeAll()
	s.log.Info("generator changed, cache purged", "purged", purged)
	s.updateMatrix(ctx)
}

// updateMatrix is the single orchestrating pass. Caller holds s.mu.
//
// Order matters: purge first so eviction never has to fight records that
// are already out of range, rebind from scratch because the grid mapping
// moved with the center, then enforce the capacity limit.
func (s *Streamer) updateMatrix(ctx context.Context) {
	center := s.tracker.Center()
	s.center = center

	purged := s.cache.RemoveWhere(func(rec *Record) bool {
		return ZoneOf(rec.ID.Coord(), center, s.cfg.Zones) == ZonePurged
	})
	if purged > 0 {
		s.log.Debug("purged out-of-range tiles", "count", purged)
	}

	s.binder.Reset()

	r := s.cfg.Zones.Cached
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			tile := Coord{X: center.X + dx, Y: center.Y + dy}
			zone := ZoneOf(tile, center, s.cfg.Zones)
			id := TileID{X: tile.X, Y: tile.Y, Resolution: s.cfg.Resolution}

			rec, ok := s.cache.Get(id)
			if !ok {
				metrics.TileCacheMisses.Inc()
				// The cached ring is populated lazily: only tiles within
				// fetch range are generated proactively.
				if zone <= ZoneFetch {
					s.sched.Request(ctx, id)
				}
				continue
			}

			metrics.TileCacheHits.Inc()
			s.cache.Touch(id)
			if rec.Status == StatusReady && zone <= ZoneRender {
				s.binder.Bind(tile.X-center.X, tile.Y-center.Y, rec.Resource)
			}
		}
	}

	s.cache.EvictOverCapacity()
}

// handleReady runs on a generation worker once its record turned ready. It
// binds the fresh tile if it is still within render range of the current
// center.
func (s *Streamer) handleReady(id TileID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.cache.Get(id)
	if !ok || rec.Status != StatusReady {
		return
	}
	center := s.tracker.Center()
	if ZoneOf(id.Coord(), center, s.cfg.Zones) > ZoneRender {
		return
	}
	s.cache.Touch(id)
	s.binder.Bind(id.X-center.X, id.Y-center.Y, rec.Resource)
}

// unbindEvicted is the cache evict hook: it runs before a resource is
// disposed and clears any render slot still borrowing it. It reads s.center
// instead of the tracker because every eviction path already runs under
// s.mu on the pass goroutine.
func (s *Streamer) unbindEvicted(rec *Record) {
	if rec.Status != StatusReady {
		return
	}
	s.binder.Unbind(rec.ID.X-s.center.X, rec.ID.Y-s.center.Y)
}

// Center returns the current center tile.
func (s *Streamer) Center() Coord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Center()
}

// Offset returns the current sub-tile pan offset.
func (s *Streamer) Offset() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Offset()
}

func (s *Streamer) CacheLen() int { return s.cache.Len() }

func (s *Streamer) InFlight() int { return s.sched.InFlight() }

// Close waits for in-flight generations to finish. Their results are still
// validated against the cache, so late completions are safe either way.
func (s *Streamer) Close() {
	s.sched.Wait()
}
