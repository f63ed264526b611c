package terrain

import "math"

// Noise is deterministic seeded value noise with fractal octaves, used as
// the detail layer on top of a curve's harmonic field.
type Noise struct {
	seed int64
}

func NewNoise(seed int64) *Noise {
	return &Noise{seed: seed}
}

// hash mixes integer lattice coordinates with the seed into [0, 1).
func (n *Noise) hash(x, y int64) float64 {
	h := uint64(x)*0x9E3779B185EBCA87 ^ uint64(y)*0xC2B2AE3D27D4EB4F ^ uint64(n.seed)
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	h *= 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return float64(h%1_000_000) / 1_000_000
}

// At samples smooth value noise at a continuous coordinate.
func (n *Noise) At(x, y float64) float64 {
	x0 := int64(math.Floor(x))
	y0 := int64(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	// smoothstep fade
	fx = fx * fx * (3 - 2*fx)
	fy = fy * fy * (3 - 2*fy)

	v00 := n.hash(x0, y0)
	v10 := n.hash(x0+1, y0)
	v01 := n.hash(x0, y0+1)
	v11 := n.hash(x0+1, y0+1)

	top := v00 + (v10-v00)*fx
	bottom := v01 + (v11-v01)*fx
	return top + (bottom-top)*fy
}

// FBM accumulates octaves of value noise, each at double frequency and half
// amplitude, normalized to [0, 1].
func (n *Noise) FBM(x, y float64, octaves int) float64 {
	if octaves < 1 {
		octaves = 1
	}
	var sum, amp, norm float64
	amp = 1
	for i := 0; i < octaves; i++ {
		sum += amp * n.At(x, y)
		norm += amp
		amp /= 2
		x *= 2
		y *= 2
	}
	return sum / norm
}
