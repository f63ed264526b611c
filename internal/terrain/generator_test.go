package terrain

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/jaennil/terrain_streamer/internal/repository/tilestore"
)

func newTestGenerator(t *testing.T, seed int64, store tilestore.Store) *Generator {
	t.Helper()
	curve, err := CurveByName("rolling-dunes")
	if err != nil {
		t.Fatal(err)
	}
	return NewGenerator(GeneratorConfig{
		Curve:        curve,
		Seed:         seed,
		BaseTileSize: 32,
		Store:        store,
	})
}

func generateImage(t *testing.T, g *Generator, x, y, resolution int) *image.RGBA {
	t.Helper()
	res, err := g.Generate(context.Background(), x, y, resolution)
	if err != nil {
		t.Fatalf("Generate(%d, %d, %d): %v", x, y, resolution, err)
	}
	tile, ok := res.(*Tile)
	if !ok {
		t.Fatalf("Generate returned %T, want *Tile", res)
	}
	return tile.Image()
}

func samePixels(a, b *image.RGBA) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	for y := a.Bounds().Min.Y; y < a.Bounds().Max.Y; y++ {
		for x := a.Bounds().Min.X; x < a.Bounds().Max.X; x++ {
			if a.RGBAAt(x, y) != b.RGBAAt(x, y) {
				return false
			}
		}
	}
	return true
}

func TestGenerateDeterministic(t *testing.T) {
	a := newTestGenerator(t, 1337, nil)
	b := newTestGenerator(t, 1337, nil)

	imgA := generateImage(t, a, 3, -2, 32)
	imgB := generateImage(t, b, 3, -2, 32)
	if !samePixels(imgA, imgB) {
		t.Error("identical inputs produced different pixels")
	}

	other := generateImage(t, a, 4, -2, 32)
	if samePixels(imgA, other) {
		t.Error("neighboring tiles produced identical pixels")
	}
}

func TestGenerateScalesToRequestedResolution(t *testing.T) {
	g := newTestGenerator(t, 1, nil)

	for _, resolution := range []int{16, 32, 64} {
		img := generateImage(t, g, 0, 0, resolution)
		want := image.Rect(0, 0, resolution, resolution)
		if img.Bounds() != want {
			t.Errorf("resolution %d: bounds = %v, want %v", resolution, img.Bounds(), want)
		}
	}
}

func TestGenerateRejectsInvalidResolution(t *testing.T) {
	g := newTestGenerator(t, 1, nil)
	if _, err := g.Generate(context.Background(), 0, 0, 0); err == nil {
		t.Error("Generate with resolution 0 succeeded, want error")
	}
	if _, err := g.Generate(context.Background(), 0, 0, -64); err == nil {
		t.Error("Generate with negative resolution succeeded, want error")
	}
}

func TestGenerateHonorsCancelledContext(t *testing.T) {
	g := newTestGenerator(t, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, 0, 0, 32); err == nil {
		t.Error("Generate with cancelled context succeeded, want error")
	}
}

func TestGenerateSnapshotRoundTrip(t *testing.T) {
	store := tilestore.NewMemoryStore()
	g := newTestGenerator(t, 1337, store)

	painted := generateImage(t, g, 2, 5, 32)

	// The snapshot write is asynchronous.
	key := tilestore.Key{X: 2, Y: 5, Resolution: 32, Curve: g.Curve().Name}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok, err := store.Get(key); err != nil {
			t.Fatalf("store lookup: %v", err)
		} else if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for snapshot store write")
		}
		time.Sleep(time.Millisecond)
	}

	// A generator with a different seed would paint different pixels, so a
	// matching result proves the tile came from the store.
	restored := newTestGenerator(t, 42, store)
	img := generateImage(t, restored, 2, 5, 32)
	if !samePixels(painted, img) {
		t.Error("restored tile differs from painted tile")
	}

	fresh := generateImage(t, restored, 2, 6, 32)
	if samePixels(painted, fresh) {
		t.Error("tile outside the store matched the painted tile")
	}
}

func TestPrewarmPopulatesStore(t *testing.T) {
	store := tilestore.NewMemoryStore()
	g := newTestGenerator(t, 7, store)

	if err := Prewarm(context.Background(), g, 1, 32, 4, nil); err != nil {
		t.Fatalf("Prewarm: %v", err)
	}

	// Snapshot writes trail the render, so poll for the full square.
	deadline := time.Now().Add(5 * time.Second)
	for {
		stored := 0
		for y := -1; y <= 1; y++ {
			for x := -1; x <= 1; x++ {
				key := tilestore.Key{X: x, Y: y, Resolution: 32, Curve: g.Curve().Name}
				if _, ok, _ := store.Get(key); ok {
					stored++
				}
			}
		}
		if stored == 9 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out with %d of 9 tiles stored", stored)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPrewarmNegativeRadiusIsNoOp(t *testing.T) {
	if err := Prewarm(context.Background(), nil, -1, 32, 4, nil); err != nil {
		t.Fatalf("Prewarm with negative radius: %v", err)
	}
}

func TestTileDispose(t *testing.T) {
	g := newTestGenerator(t, 1, nil)
	res, err := g.Generate(context.Background(), 0, 0, 32)
	if err != nil {
		t.Fatal(err)
	}
	tile := res.(*Tile)
	if tile.Image() == nil {
		t.Fatal("tile has no image before disposal")
	}
	if err := tile.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if tile.Image() != nil {
		t.Error("tile still holds an image after disposal")
	}
}
