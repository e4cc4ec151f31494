package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("PROJECT_ID", "test-project")
	t.Setenv("FANZINE_BUCKET", "test-bucket")
	t.Setenv("OCR_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-project", cfg.ProjectID)
	assert.Equal(t, "test-bucket", cfg.FanzineBucket)
	assert.Equal(t, "fanzines", cfg.Collection)
	assert.Equal(t, "uploads/raw_pdfs/", cfg.UploadPrefix)
	assert.Equal(t, DefaultPrimaryModel, cfg.PrimaryModel)
	assert.Equal(t, DefaultFallbackModel, cfg.FallbackModel)
	assert.Equal(t, 30*time.Second, cfg.OCRTimeout)
	assert.Equal(t, time.Hour, cfg.SignedURLTTL)
}

func TestLoadMissingProject(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	t.Setenv("FANZINE_BUCKET", "test-bucket")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "value")
	assert.Equal(t, "value", GetEnv("TEST_ENV_VAR", "default"))
	assert.Equal(t, "default", GetEnv("NON_EXISTENT_VAR", "default"))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "45")
	assert.Equal(t, 45*time.Second, GetEnvDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "bogus")
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_DURATION", time.Minute))

	assert.Equal(t, time.Minute, GetEnvDuration("NO_SUCH_DURATION", time.Minute))
}
