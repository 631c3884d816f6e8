package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/aideas-api/internal/api"
	"github.com/Conceptual-Machines/aideas-api/internal/audio"
	"github.com/Conceptual-Machines/aideas-api/internal/cache"
	"github.com/Conceptual-Machines/aideas-api/internal/config"
	"github.com/Conceptual-Machines/aideas-api/internal/database"
	"github.com/Conceptual-Machines/aideas-api/internal/generation"
	"github.com/Conceptual-Machines/aideas-api/internal/llm"
	"github.com/Conceptual-Machines/aideas-api/internal/metrics"
	"github.com/Conceptual-Machines/aideas-api/internal/observability"
	"github.com/Conceptual-Machines/aideas-api/internal/store"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "aideas-api@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0, // 100% sampling for now, adjust based on volume
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	// Initialize Langfuse for provider call tracing
	langfuse := observability.InitializeLangfuse(ctx, cfg)

	// Initialize database (optional: content is still served from cache
	// without it)
	var db *gorm.DB
	contentStore := store.ContentStore(store.NoopContentStore{})
	if cfg.PersistenceEnabled() {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to connect to database:", err)
		}
		if err := database.Migrate(db); err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to run migrations:", err)
		}
		contentStore = store.NewGormContentStore(db)
	} else {
		log.Println("⚠️  DATABASE_URL not set, generated content will not be persisted")
	}

	// Artifact storage for rendered timelines
	artifactStore := store.ArtifactStore(store.InlineArtifactStore{})
	if cfg.ArtifactStoreEnabled() {
		s3Store, err := store.NewS3ArtifactStore(cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to initialize S3 artifact store:", err)
		}
		artifactStore = s3Store
		log.Printf("✅ S3 artifact store enabled (bucket: %s)", cfg.S3Bucket)
	}

	// CloudWatch metrics
	cwMetrics, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}

	// Generation provider for the configured default model
	providerName := llm.ProviderNameForModel(cfg.DefaultModel)
	provider, err := llm.NewProvider(ctx, providerName, llm.FactoryConfig{
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		GeminiAPIKey: cfg.GeminiAPIKey,
		Timeout:      cfg.ProviderTimeout,
	})
	if err != nil {
		log.Printf("⚠️  Provider %s unavailable (%v), falling back to synthetic generation", providerName, err)
		provider = llm.NewSyntheticProvider()
	}
	log.Printf("🎵 Generation provider: %s (model: %s)", provider.Name(), cfg.DefaultModel)

	// Content cache and orchestrator
	contentCache := cache.New[*generation.Content](cfg.CacheMaxEntries, cfg.CacheMaxAge)
	orchestrator, err := generation.NewOrchestrator(generation.Options{
		Provider:      provider,
		Model:         cfg.DefaultModel,
		Cache:         contentCache,
		ContentStore:  contentStore,
		ArtifactStore: artifactStore,
		Metrics:       cwMetrics,
		Langfuse:      langfuse,
		MaxAttempts:   cfg.MaxAttempts,
	})
	if err != nil {
		log.Fatal("Failed to build orchestrator:", err)
	}

	// MIDI output for playback sessions; NullSink keeps transport endpoints
	// working on hosts with no ports
	var sink audio.Sink = audio.NullSink{}
	if midiSink, err := audio.NewMIDISink(""); err == nil {
		sink = midiSink
		defer midiSink.Close()
		log.Println("🎹 MIDI output enabled")
	} else {
		log.Printf("⚠️  MIDI output unavailable (%v), playback runs silent", err)
	}

	// Set Gin mode
	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(api.Deps{
		DB:           db,
		Orchestrator: orchestrator,
		Sink:         sink,
		CacheLen:     contentCache.Len,
		Metrics:      cwMetrics,
	}, cfg, GetVersion())

	// Start server
	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
