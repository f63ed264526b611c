package terrain

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jaennil/terrain_streamer/pkg/logger"
)

// Prewarm renders every tile within a Chebyshev radius of the origin so the
// snapshot store is populated before the first pan. Rendering runs with
// bounded concurrency; results are disposed immediately since only the
// store side effect matters.
func Prewarm(ctx context.Context, gen *Generator, radius, resolution, concurrency int, l logger.Logger) error {
	if radius < 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if l == nil {
		l = logger.NewNoOp()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			x, y := x, y
			g.Go(func() error {
				res, err := gen.Generate(ctx, x, y, resolution)
				if err != nil {
					return err
				}
				return res.Dispose()
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}

	side := 2*radius + 1
	l.Info("snapshot prewarm completed", "tiles", side*side, "radius", radius)
	return nil
}
