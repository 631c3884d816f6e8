package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
// Auth, billing, and user management are handled by the cloud gateway; this
// service only trusts the identity headers it forwards.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key

	// Generation
	DefaultModel    string        // model used when a request does not name one
	ProviderTimeout time.Duration // per-exchange provider timeout
	MaxAttempts     int           // generate/validate attempts before giving up

	// Content cache
	CacheMaxEntries int           // evict above this many cached fragments
	CacheMaxAge     time.Duration // evict entries older than this

	// Database
	DatabaseURL string // postgres DSN; empty disables persistence

	// Artifact storage
	S3Bucket string // bucket for rendered timeline artifacts; empty keeps them inline
	S3Region string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from the cloud gateway
	AuthMode string
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		DefaultModel:      getEnv("DEFAULT_MODEL", "gpt-5-mini"),
		ProviderTimeout:   getDuration("PROVIDER_TIMEOUT", 60*time.Second),
		MaxAttempts:       getInt("GENERATION_MAX_ATTEMPTS", 3),
		CacheMaxEntries:   getInt("CACHE_MAX_ENTRIES", 1024),
		CacheMaxAge:       getDuration("CACHE_MAX_AGE", 24*time.Hour),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		S3Bucket:          getEnv("S3_ARTIFACT_BUCKET", ""),
		S3Region:          getEnv("AWS_REGION", "us-east-1"),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
		AuthMode:          getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// IsGatewayMode returns true if running behind the cloud gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// PersistenceEnabled reports whether generated content is written to
// postgres.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// ArtifactStoreEnabled reports whether rendered timelines are uploaded to S3.
func (c *Config) ArtifactStoreEnabled() bool {
	return c.S3Bucket != ""
}
