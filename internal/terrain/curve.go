// Package terrain renders procedurally colored terrain tiles from authored
// mathematical curves. It is the in-process stand-in for the GPU pipeline
// the viewer normally paints with: same coordinates in, pixels out.
package terrain

import (
	"fmt"
	"image/color"
	"math"
)

// Harmonic is one sinusoidal term of a curve's height field.
type Harmonic struct {
	FreqX float64
	FreqY float64
	Amp   float64
	Phase float64
}

// Stop is a palette entry at a normalized height position.
type Stop struct {
	Pos   float64
	Color color.RGBA
}

// Curve is an authored terrain definition: a sum of harmonics evaluated over
// world coordinates, colored through a palette.
type Curve struct {
	Name      string
	Harmonics []Harmonic
	Palette   []Stop
}

// Eval returns the curve height at a world coordinate, normalized to [0, 1].
func (c *Curve) Eval(x, y float64) float64 {
	var sum, norm float64
	for _, h := range c.Harmonics {
		sum += h.Amp * math.Sin(h.FreqX*x+h.FreqY*y+h.Phase)
		norm += math.Abs(h.Amp)
	}
	if norm == 0 {
		return 0.5
	}
	return (sum/norm + 1) / 2
}

// Shade maps a normalized height through the palette, interpolating between
// neighboring stops.
func (c *Curve) Shade(v float64) color.RGBA {
	v = math.Max(0, math.Min(1, v))
	stops := c.Palette
	if len(stops) == 0 {
		g := uint8(v * 255)
		return color.RGBA{R: g, G: g, B: g, A: 255}
	}
	if v <= stops[0].Pos {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		if v > stops[i].Pos {
			continue
		}
		lo, hi := stops[i-1], stops[i]
		span := hi.Pos - lo.Pos
		t := 0.0
		if span > 0 {
			t = (v - lo.Pos) / span
		}
		return lerpRGBA(lo.Color, hi.Color, t)
	}
	return stops[len(stops)-1].Color
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(float64(a.R) + (float64(b.R)-float64(a.R))*t)),
		G: uint8(math.Round(float64(a.G) + (float64(b.G)-float64(a.G))*t)),
		B: uint8(math.Round(float64(a.B) + (float64(b.B)-float64(a.B))*t)),
		A: 255,
	}
}

var builtinCurves = map[string]*Curve{
	"rolling-dunes": {
		Name: "rolling-dunes",
		Harmonics: []Harmonic{
			{FreqX: 0.9, FreqY: 0.4, Amp: 1.0},
			{FreqX: 0.2, FreqY: 1.1, Amp: 0.6, Phase: 1.3},
			{FreqX: 2.3, FreqY: 1.9, Amp: 0.25, Phase: 0.7},
		},
		Palette: []Stop{
			{Pos: 0.0, Color: color.RGBA{R: 28, G: 41, B: 90, A: 255}},
			{Pos: 0.35, Color: color.RGBA{R: 64, G: 120, B: 160, A: 255}},
			{Pos: 0.5, Color: color.RGBA{R: 194, G: 178, B: 128, A: 255}},
			{Pos: 0.75, Color: color.RGBA{R: 96, G: 138, B: 74, A: 255}},
			{Pos: 1.0, Color: color.RGBA{R: 240, G: 244, B: 248, A: 255}},
		},
	},
	"ridge-lines": {
		Name: "ridge-lines",
		Harmonics: []Harmonic{
			{FreqX: 1.7, FreqY: 0.1, Amp: 1.0},
			{FreqX: 0.1, FreqY: 1.7, Amp: 1.0, Phase: 2.1},
			{FreqX: 3.1, FreqY: 2.7, Amp: 0.3, Phase: 0.4},
		},
		Palette: []Stop{
			{Pos: 0.0, Color: color.RGBA{R: 24, G: 24, B: 36, A: 255}},
			{Pos: 0.45, Color: color.RGBA{R: 104, G: 78, B: 62, A: 255}},
			{Pos: 0.7, Color: color.RGBA{R: 150, G: 142, B: 128, A: 255}},
			{Pos: 1.0, Color: color.RGBA{R: 252, G: 250, B: 242, A: 255}},
		},
	},
	"basin": {
		Name: "basin",
		Harmonics: []Harmonic{
			{FreqX: 0.5, FreqY: 0.5, Amp: 1.0, Phase: 0.9},
			{FreqX: 1.2, FreqY: 0.3, Amp: 0.4},
		},
		Palette: []Stop{
			{Pos: 0.0, Color: color.RGBA{R: 12, G: 32, B: 64, A: 255}},
			{Pos: 0.5, Color: color.RGBA{R: 40, G: 96, B: 110, A: 255}},
			{Pos: 1.0, Color: color.RGBA{R: 188, G: 204, B: 178, A: 255}},
		},
	},
}

// CurveByName looks up a builtin curve definition.
func CurveByName(name string) (*Curve, error) {
	c, ok := builtinCurves[name]
	if !ok {
		return nil, fmt.Errorf("unknown curve %q", name)
	}
	return c, nil
}
