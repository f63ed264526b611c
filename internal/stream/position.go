package stream

import (
	"math"
	"time"
)

// snapClamp is deliberately a hair inside the half-tile range so that
// floating point drift after a snap can never re-trigger the boundary check.
const snapClamp = 0.49

// Shift is one discrete boundary crossing of the pan position, at most one
// tile per axis.
type Shift struct {
	DX int
	DY int
}

func (s Shift) IsZero() bool { return s.DX == 0 && s.DY == 0 }

// Tracker owns the continuous sub-tile pan offset and the integer center
// tile. Pointer deltas accumulate into the offset; once the offset reaches
// the panel boundary on an axis the tracker snaps it back onto the grid and
// advances the center tile instead.
//
// Tracker is not safe for concurrent use; the Streamer serializes access.
type Tracker struct {
	offsetX float64
	offsetY float64
	center  Coord

	sensitivity float64
	boundary    float64
	debounce    time.Duration

	now       func() time.Time
	lastShift time.Time
}

func NewTracker(sensitivity, boundary float64, debounce time.Duration) *Tracker {
	if sensitivity <= 0 {
		sensitivity = 1
	}
	if boundary <= 0 {
		boundary = 0.5
	}
	return &Tracker{
		sensitivity: sensitivity,
		boundary:    boundary,
		debounce:    debounce,
		now:         time.Now,
	}
}

func (t *Tracker) Center() Coord { return t.center }

// Offset returns the current sub-tile pan offset.
func (t *Tracker) Offset() (x, y float64) { return t.offsetX, t.offsetY }

// ApplyDelta advances the pan offset by a raw pointer delta and reports
// whether a boundary crossing fired. Each axis is checked independently.
// A crossing within the debounce interval of the previous one is suppressed,
// with the offset pinned at the boundary, so a pointer hovering exactly on a
// tile edge cannot oscillate the center back and forth.
func (t *Tracker) ApplyDelta(dx, dy float64) (Shift, bool) {
	t.offsetX += dx * t.sensitivity
	t.offsetY += dy * t.sensitivity

	var shift Shift
	if t.offsetX >= t.boundary {
		shift.DX = 1
	} else if t.offsetX <= -t.boundary {
		shift.DX = -1
	}
	if t.offsetY >= t.boundary {
		shift.DY = 1
	} else if t.offsetY <= -t.boundary {
		shift.DY = -1
	}
	if shift.IsZero() {
		return Shift{}, false
	}

	now := t.now()
	if !t.lastShift.IsZero() && now.Sub(t.lastShift) < t.debounce {
		t.offsetX = clamp(t.offsetX, t.boundary)
		t.offsetY = clamp(t.offsetY, t.boundary)
		return Shift{}, false
	}
	t.lastShift = now

	t.offsetX = clamp(t.offsetX-float64(shift.DX), snapClamp)
	t.offsetY = clamp(t.offsetY-float64(shift.DY), snapClamp)
	t.center.X += shift.DX
	t.center.Y += shift.DY

	return shift, true
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
