package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults shared by all services. MaxMutationsPerBatch stays below the
// store's 500-mutation atomic-commit ceiling.
const (
	DefaultCollection   = "fanzines"
	DefaultUploadPrefix = "uploads/raw_pdfs/"

	DefaultPrimaryModel  = "gemini-3-flash-preview"
	DefaultFallbackModel = "gemini-1.5-pro"

	MaxMutationsPerBatch = 400
)

// Config holds all environment-derived settings for the pipeline services.
type Config struct {
	ProjectID      string
	VertexAIRegion string
	FanzineBucket  string
	Collection     string
	UploadPrefix   string

	PrimaryModel  string
	FallbackModel string

	OCRTimeout   time.Duration
	SignedURLTTL time.Duration
}

// Load reads configuration from the environment and validates the required
// fields. Every service constructor goes through here.
func Load() (*Config, error) {
	projectID := GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	bucket := GetEnv("FANZINE_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("FANZINE_BUCKET environment variable must be set")
	}

	return &Config{
		ProjectID:      projectID,
		VertexAIRegion: GetEnv("VERTEX_AI_REGION", "us-central1"),
		FanzineBucket:  bucket,
		Collection:     GetEnv("FIRESTORE_COLLECTION", DefaultCollection),
		UploadPrefix:   GetEnv("UPLOAD_PREFIX", DefaultUploadPrefix),
		PrimaryModel:   GetEnv("OCR_PRIMARY_MODEL", DefaultPrimaryModel),
		FallbackModel:  GetEnv("OCR_FALLBACK_MODEL", DefaultFallbackModel),
		OCRTimeout:     GetEnvDuration("OCR_TIMEOUT", 100*time.Second),
		SignedURLTTL:   GetEnvDuration("SIGNED_URL_TTL", time.Hour),
	}, nil
}

// GetEnv reads an environment variable or returns a fallback value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvDuration reads a duration environment variable. Plain integers are
// interpreted as seconds; invalid values fall back.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
