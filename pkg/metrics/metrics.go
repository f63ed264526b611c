package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tile_cache_hits_total",
		Help: "Total number of tile cache hits during matrix passes",
	})

	TileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tile_cache_misses_total",
		Help: "Total number of tile cache misses during matrix passes",
	})

	TileCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tile_cache_evictions_total",
		Help: "Total number of tiles evicted by the LRU capacity check",
	})

	TileCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tile_cache_size",
		Help: "Current number of tile records held in the cache",
	})

	GenerationsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tile_generations_started_total",
		Help: "Total number of tile generations dispatched to the generator",
	})

	GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tile_generation_failures_total",
		Help: "Total number of tile generations that returned an error",
	})

	StaleResultsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tile_stale_results_discarded_total",
		Help: "Total number of generation results discarded because the tile was purged mid-flight",
	})

	GenerationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tile_generations_in_flight",
		Help: "Current number of in-flight tile generations",
	})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tile_generation_duration_seconds",
		Help:    "Duration of tile generation in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	PanelShifts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panel_shifts_total",
		Help: "Total number of tile boundary crossings snapped onto the grid",
	})

	// Snapshot store metrics
	SnapshotStoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_store_operation_duration_seconds",
		Help:    "Duration of snapshot store operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	SnapshotStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_store_errors_total",
		Help: "Total number of snapshot store errors",
	}, []string{"operation"})
)
