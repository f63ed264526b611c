package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Stream    Stream    `envPrefix:"STREAM_"`
		Terrain   Terrain   `envPrefix:"TERRAIN_"`
		Store     Store     `envPrefix:"STORE_"`
	}

	HTTP struct {
		Server  Server        `envPrefix:"SERVER_"`
		Timeout time.Duration `envPrefix:"TIMEOUT" envDefault:"10s"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"terrain-streamer"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	// Stream carries the numeric knobs of the tile streaming engine. The
	// zone radii are Chebyshev distances from the center tile.
	Stream struct {
		ViewRadius               int           `env:"VIEW_RADIUS" envDefault:"0"`
		RenderRadius             int           `env:"RENDER_RADIUS" envDefault:"2"`
		FetchRadius              int           `env:"FETCH_RADIUS" envDefault:"3"`
		CachedRadius             int           `env:"CACHED_RADIUS" envDefault:"4"`
		MaxConcurrentGenerations int           `env:"MAX_CONCURRENT_GENERATIONS" envDefault:"3"`
		CacheSizeLimit           int           `env:"CACHE_SIZE_LIMIT" envDefault:"81"`
		DefaultResolution        int           `env:"DEFAULT_RESOLUTION" envDefault:"256"`
		MovementSensitivity      float64       `env:"MOVEMENT_SENSITIVITY" envDefault:"0.0025"`
		PanelBoundary            float64       `env:"PANEL_BOUNDARY" envDefault:"0.5"`
		SnapDebounce             time.Duration `env:"SNAP_DEBOUNCE" envDefault:"100ms"`
		PlaneSize                int           `env:"PLANE_SIZE" envDefault:"5"`
	}

	Terrain struct {
		Curve         string `env:"CURVE" envDefault:"rolling-dunes"`
		Seed          int64  `env:"SEED" envDefault:"1337"`
		BaseTileSize  int    `env:"BASE_TILE_SIZE" envDefault:"256"`
		PrewarmRadius int    `env:"PREWARM_RADIUS" envDefault:"0"`
	}

	Store struct {
		Backend    string        `env:"BACKEND" envDefault:"memory"`
		SQLitePath string        `env:"SQLITE_PATH" envDefault:"tile_snapshots.db"`
		Redis      Redis         `envPrefix:"REDIS_"`
		TTL        time.Duration `env:"TTL" envDefault:"24h"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
