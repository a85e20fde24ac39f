package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DRAFTWISE_DATABASE_URL", "postgres://localhost:5432/draftwise")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDimension)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileBytes)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, float32(0.75), cfg.SimilarityThreshold)
	assert.Equal(t, 5, cfg.MaxSearchResults)
	assert.Equal(t, 60, cfg.EmbedRateLimitRPM)
	assert.Equal(t, 3, cfg.EmbedRetryAttempts)
	assert.Equal(t, 5*time.Minute, cfg.CatalogRefreshInterval)
	assert.Equal(t, 60*time.Second, cfg.ExternalCallTimeout)
	assert.Equal(t, []string{"text/plain", "text/markdown", "application/pdf"}, cfg.AllowedFileTypes)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DRAFTWISE_DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidOverlap(t *testing.T) {
	t.Setenv("DRAFTWISE_DATABASE_URL", "postgres://localhost:5432/draftwise")
	t.Setenv("DRAFTWISE_CHUNK_SIZE", "100")
	t.Setenv("DRAFTWISE_CHUNK_OVERLAP", "100")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestConfig_HasS3(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasS3())

	cfg.S3Endpoint = "http://localhost:9000"
	cfg.S3AccessKey = "key"
	cfg.S3SecretKey = "secret"
	assert.True(t, cfg.HasS3())
}

func TestConfig_TypeAllowed(t *testing.T) {
	cfg := &Config{AllowedFileTypes: []string{"text/plain", "application/pdf"}}

	assert.True(t, cfg.TypeAllowed("text/plain"))
	assert.True(t, cfg.TypeAllowed("TEXT/PLAIN"))
	assert.True(t, cfg.TypeAllowed("text/plain; charset=utf-8"))
	assert.True(t, cfg.TypeAllowed("application/pdf"))
	assert.False(t, cfg.TypeAllowed("application/zip"))
	assert.False(t, cfg.TypeAllowed(""))
}
