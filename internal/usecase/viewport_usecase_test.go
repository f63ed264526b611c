package usecase

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/jaennil/terrain_streamer/internal/stream"
	"github.com/jaennil/terrain_streamer/internal/terrain"
	"github.com/jaennil/terrain_streamer/pkg/logger"
)

func newTestViewport(t *testing.T) (*ViewportUseCase, *stream.Streamer) {
	t.Helper()
	curve, err := terrain.CurveByName("rolling-dunes")
	if err != nil {
		t.Fatal(err)
	}
	gen := terrain.NewGenerator(terrain.GeneratorConfig{
		Curve:        curve,
		Seed:         1337,
		BaseTileSize: 16,
	})

	cfg := stream.DefaultConfig()
	cfg.Resolution = 16
	cfg.MovementSensitivity = 1
	cfg.SnapDebounce = 0
	cfg.MaxConcurrentGenerations = 100

	plane := stream.NewRenderPlane(2*cfg.Zones.Render + 1)
	s := stream.New(cfg, gen, plane, nil)
	return NewViewportUseCase(s, plane, gen, cfg.Resolution, logger.NewNoOp()), s
}

func TestViewportPanReportsShift(t *testing.T) {
	uc, s := newTestViewport(t)
	defer s.Close()

	st := uc.Pan(context.Background(), 0.3, 0)
	if st.Shifted {
		t.Error("sub-boundary pan reported a shift")
	}
	if st.CenterX != 0 || st.CenterY != 0 {
		t.Errorf("center = (%d, %d), want origin", st.CenterX, st.CenterY)
	}

	st = uc.Pan(context.Background(), 0.8, 0)
	if !st.Shifted {
		t.Error("boundary crossing did not report a shift")
	}
	if st.CenterX != 1 || st.CenterY != 0 {
		t.Errorf("center after shift = (%d, %d), want (1, 0)", st.CenterX, st.CenterY)
	}
	if st.OffsetX < -0.5 || st.OffsetX > 0.5 {
		t.Errorf("offset after shift = %v, want value in [-0.5, 0.5]", st.OffsetX)
	}
}

func TestViewportSnapshotPNG(t *testing.T) {
	uc, s := newTestViewport(t)

	s.Refresh(context.Background())
	s.Close()
	s.Refresh(context.Background())

	data, err := uc.SnapshotPNG()
	if err != nil {
		t.Fatalf("SnapshotPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("snapshot is not a valid PNG: %v", err)
	}

	// Render zone radius 2 means a 5x5 plane of 16px tiles.
	if got := img.Bounds().Dx(); got != 5*16 {
		t.Errorf("snapshot width = %d, want %d", got, 5*16)
	}
	if got := img.Bounds().Dy(); got != 5*16 {
		t.Errorf("snapshot height = %d, want %d", got, 5*16)
	}
}

func TestViewportRenderTile(t *testing.T) {
	uc, s := newTestViewport(t)
	defer s.Close()

	data, err := uc.RenderTile(context.Background(), 4, -7, 32)
	if err != nil {
		t.Fatalf("RenderTile: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("rendered tile is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("tile bounds = %v, want 32x32", img.Bounds())
	}

	if _, err := uc.RenderTile(context.Background(), 0, 0, 0); err == nil {
		t.Error("RenderTile with resolution 0 succeeded, want error")
	}
}
