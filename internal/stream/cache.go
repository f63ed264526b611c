package stream

import (
	"sync"
	"time"

	"github.com/jaennil/terrain_streamer/pkg/logger"
	"github.com/jaennil/terrain_streamer/pkg/metrics"
)

// Cache is the in-memory store of tile records. It is the sole owner of
// tile resources: a record's resource is disposed exactly once, by the
// cache, when the record is removed, purged or evicted. The eviction hook
// runs before disposal so the streamer can unbind a still-referenced
// resource from the render plane first.
type Cache struct {
	mu      sync.Mutex
	limit   int
	records map[TileID]*Record
	onEvict func(*Record)
	log     logger.Logger
	now     func() time.Time
}

func NewCache(limit int, l logger.Logger) *Cache {
	if limit <= 0 {
		limit = 1
	}
	if l == nil {
		l = logger.NewNoOp()
	}
	return &Cache{
		limit:   limit,
		records: make(map[TileID]*Record),
		log:     l,
		now:     time.Now,
	}
}

// SetEvictHook installs the callback invoked for every record leaving the
// cache, before its resource is disposed.
func (c *Cache) SetEvictHook(fn func(*Record)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

func (c *Cache) Get(id TileID) (*Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	return rec, ok
}

func (c *Cache) Put(rec *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec.LastAccessed.IsZero() {
		rec.LastAccessed = c.now()
	}
	c.records[rec.ID] = rec
	metrics.TileCacheSize.Set(float64(len(c.records)))
}

// Touch refreshes a record's last access time, keeping it warm for the LRU
// capacity check.
func (c *Cache) Touch(id TileID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.records[id]; ok {
		rec.LastAccessed = c.now()
	}
}

// Remove drops a record unconditionally, disposing its resource.
func (c *Cache) Remove(id TileID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok {
		return
	}
	delete(c.records, id)
	c.dispose(rec)
	metrics.TileCacheSize.Set(float64(len(c.records)))
}

// RemoveWhere drops every record matching the predicate. Used by the matrix
// pass to purge records whose zone fell outside the cached ring.
func (c *Cache) RemoveWhere(match func(*Record) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, rec := range c.records {
		if !match(rec) {
			continue
		}
		delete(c.records, id)
		c.dispose(rec)
		removed++
	}
	if removed > 0 {
		metrics.TileCacheSize.Set(float64(len(c.records)))
	}
	return removed
}

// EvictOverCapacity removes ready records, least recently accessed first,
// until the cache is back under its size limit. Records still generating
// are never evicted; they are accounted against the limit but the in-flight
// bound keeps their number small. Ties on the access time are broken by
// tile id so eviction order is deterministic.
func (c *Cache) EvictOverCapacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for len(c.records) > c.limit {
		victim := c.coldest()
		if victim == nil {
			break
		}
		delete(c.records, victim.ID)
		c.dispose(victim)
		evicted++
		metrics.TileCacheEvictions.Inc()
	}
	if evicted > 0 {
		metrics.TileCacheSize.Set(float64(len(c.records)))
	}
	return evicted
}

func (c *Cache) coldest() *Record {
	var victim *Record
	for _, rec := range c.records {
		if rec.Status != StatusReady {
			continue
		}
		if victim == nil {
			victim = rec
			continue
		}
		if rec.LastAccessed.Before(victim.LastAccessed) {
			victim = rec
		} else if rec.LastAccessed.Equal(victim.LastAccessed) && rec.ID.String() < victim.ID.String() {
			victim = rec
		}
	}
	return victim
}

// PurgeAll empties the cache, disposing every resource. Used when the
// generator changes and every cached tile is stale.
func (c *Cache) PurgeAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	purged := len(c.records)
	for id, rec := range c.records {
		delete(c.records, id)
		c.dispose(rec)
	}
	metrics.TileCacheSize.Set(0)
	return purged
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Range calls fn for each record until fn returns false. The record must
// not be retained past the call.
func (c *Cache) Range(fn func(*Record) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.records {
		if !fn(rec) {
			return
		}
	}
}

// completeReady applies a successful generation result. It reports false if
// the record was purged or superseded mid-flight, in which case the caller
// owns the freshly produced resource and must dispose it.
func (c *Cache) completeReady(id TileID, token uint64, res Resource) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok || rec.Status != StatusGenerating || rec.token != token {
		return false
	}
	rec.Status = StatusReady
	rec.Resource = res
	rec.LastAccessed = c.now()
	return true
}

// completeFailure drops a generating record after a failed generation,
// returning the tile to the not-requested state.
func (c *Cache) completeFailure(id TileID, token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok || rec.Status != StatusGenerating || rec.token != token {
		return false
	}
	delete(c.records, id)
	metrics.TileCacheSize.Set(float64(len(c.records)))
	return true
}

// dispose runs the evict hook and releases the record's resource. Disposal
// failures are logged and otherwise ignored; the record is already gone
// from the map by the time this runs.
func (c *Cache) dispose(rec *Record) {
	if c.onEvict != nil {
		c.onEvict(rec)
	}
	if rec.Resource == nil {
		return
	}
	if err := rec.Resource.Dispose(); err != nil {
		c.log.Error("failed to dispose tile resource", "tile", rec.ID.String(), "error", err)
	}
	rec.Resource = nil
}
