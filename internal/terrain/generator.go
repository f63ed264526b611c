package terrain

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/jaennil/terrain_streamer/internal/repository/tilestore"
	"github.com/jaennil/terrain_streamer/internal/stream"
	"github.com/jaennil/terrain_streamer/pkg/logger"
)

// Tile is the generated resource handed to the streaming engine: a decoded
// pixel buffer released on Dispose.
type Tile struct {
	img *image.RGBA
}

var _ stream.Resource = (*Tile)(nil)

// Image returns the pixel buffer, or nil after disposal.
func (t *Tile) Image() *image.RGBA { return t.img }

func (t *Tile) Dispose() error {
	t.img = nil
	return nil
}

// Generator paints terrain tiles from a curve definition plus a noise
// detail layer. If a snapshot store is attached, previously rendered tiles
// are decoded from it instead of repainted, and fresh paints are stored
// back best-effort.
type Generator struct {
	curve    *Curve
	noise    *Noise
	baseSize int
	store    tilestore.Store
	log      logger.Logger
}

type GeneratorConfig struct {
	Curve        *Curve
	Seed         int64
	BaseTileSize int
	Store        tilestore.Store
	Logger       logger.Logger
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNoOp()
	}
	size := cfg.BaseTileSize
	if size <= 0 {
		size = 256
	}
	return &Generator{
		curve:    cfg.Curve,
		noise:    NewNoise(cfg.Seed),
		baseSize: size,
		store:    cfg.Store,
		log:      l,
	}
}

func (g *Generator) Curve() *Curve { return g.curve }

var _ stream.Generator = (*Generator)(nil)

// Generate renders one tile at the requested resolution. Identical inputs
// always produce identical pixels, so the result is safely cacheable by
// both the in-memory cache and the snapshot store.
func (g *Generator) Generate(ctx context.Context, tileX, tileY, resolution int) (stream.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("invalid tile resolution %d", resolution)
	}

	key := tilestore.Key{X: tileX, Y: tileY, Resolution: resolution, Curve: g.curve.Name}
	if g.store != nil {
		if tile, ok := g.restore(key); ok {
			return tile, nil
		}
	}

	img := g.paint(tileX, tileY)
	if resolution != g.baseSize {
		scaled := image.NewRGBA(image.Rect(0, 0, resolution, resolution))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		img = scaled
	}

	if g.store != nil {
		g.snapshot(key, img)
	}

	return &Tile{img: img}, nil
}

// paint renders the base-resolution pixel grid for one tile. World
// coordinates are continuous across tile edges, so adjacent tiles join
// seamlessly.
func (g *Generator) paint(tileX, tileY int) *image.RGBA {
	size := g.baseSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for py := 0; py < size; py++ {
		wy := float64(tileY) + float64(py)/float64(size)
		for px := 0; px < size; px++ {
			wx := float64(tileX) + float64(px)/float64(size)
			v := 0.65*g.curve.Eval(wx*6, wy*6) + 0.35*g.noise.FBM(wx*4, wy*4, 4)
			img.SetRGBA(px, py, g.curve.Shade(v))
		}
	}
	return img
}

func (g *Generator) restore(key tilestore.Key) (*Tile, bool) {
	data, ok, err := g.store.Get(key)
	if err != nil {
		g.log.Warn("snapshot store lookup failed, repainting", "x", key.X, "y", key.Y, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		g.log.Warn("stored snapshot is corrupt, repainting", "x", key.X, "y", key.Y, "error", err)
		return nil, false
	}

	img, ok := decoded.(*image.RGBA)
	if !ok {
		img = image.NewRGBA(decoded.Bounds())
		xdraw.Draw(img, img.Bounds(), decoded, decoded.Bounds().Min, xdraw.Src)
	}
	return &Tile{img: img}, true
}

// snapshot stores the encoded tile fire-and-forget; a failed store only
// costs a repaint later.
func (g *Generator) snapshot(key tilestore.Key, img *image.RGBA) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		g.log.Warn("failed to encode tile snapshot", "x", key.X, "y", key.Y, "error", err)
		return
	}
	go func() {
		if err := g.store.Set(key, buf.Bytes()); err != nil {
			g.log.Warn("failed to store tile snapshot", "x", key.X, "y", key.Y, "error", err)
		}
	}()
}
