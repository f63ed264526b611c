package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaennil/terrain_streamer/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/terrain_streamer/pkg/logger"
	"github.com/jaennil/terrain_streamer/pkg/telemetry"
)

func NewRouter(handler *handler.Handler, l logger.Logger, tracingEnabled bool) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(ginZapLogger(l))
	if tracingEnabled {
		r.Use(telemetry.GinMiddleware("terrain-streamer"))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)
	v1.GET("/viewport", handler.Viewport)
	v1.POST("/viewport/pan", handler.Pan)
	v1.GET("/viewport/state", handler.State)
	v1.GET("/tile/:resolution/:x/:y", handler.Tile)

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
