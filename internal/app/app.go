package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	v1 "github.com/jaennil/terrain_streamer/internal/infrastructure/http/v1"
	"github.com/jaennil/terrain_streamer/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/terrain_streamer/internal/repository/tilestore"
	"github.com/jaennil/terrain_streamer/internal/stream"
	"github.com/jaennil/terrain_streamer/internal/terrain"
	"github.com/jaennil/terrain_streamer/internal/usecase"
	"github.com/jaennil/terrain_streamer/pkg/config"
	"github.com/jaennil/terrain_streamer/pkg/http_server"
	"github.com/jaennil/terrain_streamer/pkg/logger"
	"github.com/jaennil/terrain_streamer/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger.Level)

	l.Info("starting terrain streamer", "config", cfg)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
	}

	store := newStore(cfg, l)

	curve, err := terrain.CurveByName(cfg.Terrain.Curve)
	if err != nil {
		l.Fatal("failed to load curve", "curve", cfg.Terrain.Curve, "error", err)
	}

	generator := terrain.NewGenerator(terrain.GeneratorConfig{
		Curve:        curve,
		Seed:         cfg.Terrain.Seed,
		BaseTileSize: cfg.Terrain.BaseTileSize,
		Store:        store,
		Logger:       l,
	})

	ctx := context.Background()

	if cfg.Terrain.PrewarmRadius > 0 && store != nil {
		if err := terrain.Prewarm(ctx, generator, cfg.Terrain.PrewarmRadius,
			cfg.Stream.DefaultResolution, cfg.Stream.MaxConcurrentGenerations, l); err != nil {
			l.Warn("snapshot prewarm failed", "error", err)
		}
	}

	plane := stream.NewRenderPlane(cfg.Stream.PlaneSize)
	streamer := stream.New(stream.Config{
		Zones: stream.Zones{
			View:   cfg.Stream.ViewRadius,
			Render: cfg.Stream.RenderRadius,
			Fetch:  cfg.Stream.FetchRadius,
			Cached: cfg.Stream.CachedRadius,
		},
		MaxConcurrentGenerations: cfg.Stream.MaxConcurrentGenerations,
		CacheSizeLimit:           cfg.Stream.CacheSizeLimit,
		Resolution:               cfg.Stream.DefaultResolution,
		MovementSensitivity:      cfg.Stream.MovementSensitivity,
		PanelBoundary:            cfg.Stream.PanelBoundary,
		SnapDebounce:             cfg.Stream.SnapDebounce,
	}, generator, plane, l)

	streamer.Refresh(ctx)

	viewportUseCase := usecase.NewViewportUseCase(streamer, plane, generator, cfg.Stream.DefaultResolution, l)

	validate := validator.New()
	h := handler.NewHandler(validate, viewportUseCase)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := http_server.NewServer(cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Fatal("server forced to shutdown", "error", err)
	}

	streamer.Close()

	l.Info("server stopped")
}

// newStore selects the snapshot store backend. A broken backend is logged
// and degraded to none; the engine repaints instead.
func newStore(cfg *config.Config, l logger.Logger) tilestore.Store {
	switch cfg.Store.Backend {
	case "memory":
		return tilestore.NewMemoryStore()
	case "sqlite":
		store, err := tilestore.NewSQLiteStore(cfg.Store.SQLitePath, l)
		if err != nil {
			l.Error("failed to initialize sqlite snapshot store, running without snapshots", "error", err)
			return nil
		}
		return store
	case "redis":
		store, err := tilestore.NewRedisStore(tilestore.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			TTL:      cfg.Store.TTL,
		})
		if err != nil {
			l.Error("failed to initialize redis snapshot store, running without snapshots", "error", err)
			return nil
		}
		return store
	case "none", "":
		return nil
	default:
		l.Warn("unknown snapshot store backend, running without snapshots", "backend", cfg.Store.Backend)
		return nil
	}
}
