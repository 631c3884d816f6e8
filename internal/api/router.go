package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/aideas-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/aideas-api/internal/api/middleware"
	"github.com/Conceptual-Machines/aideas-api/internal/audio"
	"github.com/Conceptual-Machines/aideas-api/internal/config"
	"github.com/Conceptual-Machines/aideas-api/internal/generation"
	"github.com/Conceptual-Machines/aideas-api/internal/metrics"
)

// Deps carries the collaborators the router hands to handlers.
type Deps struct {
	DB           *gorm.DB
	Orchestrator *generation.Orchestrator
	Sink         audio.Sink
	CacheLen     func() int
	Metrics      *metrics.Client
}

func SetupRouter(deps Deps, cfg *config.Config, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Metrics))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.DB)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, deps.CacheLen)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// API routes v1
	v1 := router.Group("/api/v1")
	if cfg.IsGatewayMode() {
		v1.Use(apimiddleware.GatewayAuth())
	} else {
		v1.Use(apimiddleware.NoAuth())
	}
	{
		// Content generation
		generationHandler := handlers.NewGenerationHandler(deps.Orchestrator)
		v1.POST("/generations", generationHandler.Generate)

		// Playback transport
		sink := deps.Sink
		if sink == nil {
			sink = audio.NullSink{}
		}
		playbackHandler := handlers.NewPlaybackHandler(deps.Orchestrator, sink)
		v1.POST("/playback/sessions", playbackHandler.CreateSession)
		v1.POST("/playback/sessions/:id/start", playbackHandler.Start)
		v1.POST("/playback/sessions/:id/pause", playbackHandler.Pause)
		v1.POST("/playback/sessions/:id/stop", playbackHandler.Stop)
		v1.POST("/playback/sessions/:id/seek", playbackHandler.Seek)
		v1.POST("/playback/sessions/:id/loop", playbackHandler.Loop)
		v1.DELETE("/playback/sessions/:id", playbackHandler.DeleteSession)
	}

	return router
}
