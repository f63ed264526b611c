// Package stream implements the tile streaming engine behind the pannable
// infinite-canvas terrain view: it partitions the unbounded coordinate plane
// into square tiles, tracks a continuous pan position against the discrete
// tile grid, generates missing tiles asynchronously and evicts tiles that
// fall out of relevance.
package stream

import (
	"fmt"
	"time"
)

// Coord is an integer tile coordinate on the infinite plane.
type Coord struct {
	X int
	Y int
}

// TileID identifies one generated tile: grid coordinates plus the pixel
// resolution it was rendered at.
type TileID struct {
	X          int
	Y          int
	Resolution int
}

func (id TileID) Coord() Coord {
	return Coord{X: id.X, Y: id.Y}
}

func (id TileID) String() string {
	return fmt.Sprintf("%d,%d@%d", id.X, id.Y, id.Resolution)
}

type Status int

const (
	StatusGenerating Status = iota
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusGenerating:
		return "generating"
	case StatusReady:
		return "ready"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Resource is an opaque disposable unit produced by the generator, e.g. a
// decoded pixel buffer or a texture reference. The cache owns it exclusively
// until eviction; the render plane only borrows it while bound.
type Resource interface {
	Dispose() error
}

// Record is the cache entry for one tile. Absence from the cache means the
// tile was never requested (or has been purged).
type Record struct {
	ID           TileID
	Status       Status
	Resource     Resource
	LastAccessed time.Time

	// token ties an in-flight generation to this record. A completion whose
	// token no longer matches is stale and its result is discarded.
	token uint64
}
