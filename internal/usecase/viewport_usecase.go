package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/jaennil/terrain_streamer/internal/stream"
	"github.com/jaennil/terrain_streamer/internal/terrain"
	"github.com/jaennil/terrain_streamer/pkg/logger"
)

// ViewportUseCase drives one streaming viewport: it feeds pan deltas into
// the engine and exposes the bound render plane as a composited image.
type ViewportUseCase struct {
	streamer   *stream.Streamer
	plane      *stream.RenderPlane
	generator  *terrain.Generator
	resolution int
	logger     logger.Logger
}

func NewViewportUseCase(s *stream.Streamer, plane *stream.RenderPlane, gen *terrain.Generator, resolution int, l logger.Logger) *ViewportUseCase {
	return &ViewportUseCase{
		streamer:   s,
		plane:      plane,
		generator:  gen,
		resolution: resolution,
		logger:     l,
	}
}

type ViewportState struct {
	CenterX     int     `json:"center_x"`
	CenterY     int     `json:"center_y"`
	OffsetX     float64 `json:"offset_x"`
	OffsetY     float64 `json:"offset_y"`
	CachedTiles int     `json:"cached_tiles"`
	InFlight    int     `json:"in_flight"`
	Shifted     bool    `json:"shifted,omitempty"`
}

// Pan applies a pointer-drag delta and returns the resulting viewport state.
func (uc *ViewportUseCase) Pan(ctx context.Context, dx, dy float64) ViewportState {
	shift, crossed := uc.streamer.Pan(ctx, dx, dy)
	if crossed {
		uc.logger.Debug("viewport crossed tile boundary", "dx", shift.DX, "dy", shift.DY)
	}
	st := uc.State()
	st.Shifted = crossed
	return st
}

func (uc *ViewportUseCase) State() ViewportState {
	center := uc.streamer.Center()
	ox, oy := uc.streamer.Offset()
	return ViewportState{
		CenterX:     center.X,
		CenterY:     center.Y,
		OffsetX:     ox,
		OffsetY:     oy,
		CachedTiles: uc.streamer.CacheLen(),
		InFlight:    uc.streamer.InFlight(),
	}
}

// SnapshotPNG composites every bound render slot into one PNG. Slots whose
// tiles are still generating stay as the background fill, which is exactly
// the visibly-missing-tile failure mode the engine promises at worst.
func (uc *ViewportUseCase) SnapshotPNG() ([]byte, error) {
	size := uc.plane.Size()
	half := (size - 1) / 2
	px := uc.resolution

	canvas := image.NewRGBA(image.Rect(0, 0, size*px, size*px))
	background := image.NewUniform(color.RGBA{R: 16, G: 16, B: 20, A: 255})
	xdraw.Draw(canvas, canvas.Bounds(), background, image.Point{}, xdraw.Src)

	uc.plane.Each(func(gridX, gridY int, res stream.Resource) {
		tile, ok := res.(*terrain.Tile)
		if !ok || tile.Image() == nil {
			return
		}
		img := tile.Image()
		dst := image.Rect((gridX+half)*px, (gridY+half)*px, (gridX+half+1)*px, (gridY+half+1)*px)
		xdraw.ApproxBiLinear.Scale(canvas, dst, img, img.Bounds(), xdraw.Src, nil)
	})

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode viewport snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTile renders one tile directly, outside the streaming cache, and
// returns it PNG-encoded.
func (uc *ViewportUseCase) RenderTile(ctx context.Context, x, y, resolution int) ([]byte, error) {
	res, err := uc.generator.Generate(ctx, x, y, resolution)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Dispose(); err != nil {
			uc.logger.Warn("failed to dispose rendered tile", "x", x, "y", y, "error", err)
		}
	}()

	tile, ok := res.(*terrain.Tile)
	if !ok || tile.Image() == nil {
		return nil, fmt.Errorf("generator returned an unexpected resource for tile %d,%d", x, y)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, tile.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode tile %d,%d: %w", x, y, err)
	}
	return buf.Bytes(), nil
}
