package stream

import "fmt"

// Zone classifies a tile by its Chebyshev distance from the center tile.
// Zones are square rings: VIEW is the center, PURGED is everything beyond
// the cached ring.
type Zone int

const (
	ZoneView Zone = iota
	ZoneRender
	ZoneFetch
	ZoneCached
	ZonePurged
)

func (z Zone) String() string {
	switch z {
	case ZoneView:
		return "view"
	case ZoneRender:
		return "render"
	case ZoneFetch:
		return "fetch"
	case ZoneCached:
		return "cached"
	case ZonePurged:
		return "purged"
	default:
		return fmt.Sprintf("zone(%d)", int(z))
	}
}

// Zones holds the Chebyshev radius of each ring.
type Zones struct {
	View   int
	Render int
	Fetch  int
	Cached int
}

func DefaultZones() Zones {
	return Zones{View: 0, Render: 2, Fetch: 3, Cached: 4}
}

// Chebyshev returns max(|ax-bx|, |ay-by|).
func Chebyshev(a, b Coord) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// ZoneOf maps a tile's distance from the center tile onto a Zone. It is
// pure and translation invariant: ZoneOf(t, c) == ZoneOf(t-c, origin).
func ZoneOf(tile, center Coord, z Zones) Zone {
	d := Chebyshev(tile, center)
	switch {
	case d <= z.View:
		return ZoneView
	case d <= z.Render:
		return ZoneRender
	case d <= z.Fetch:
		return ZoneFetch
	case d <= z.Cached:
		return ZoneCached
	default:
		return ZonePurged
	}
}
