package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel     string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimension int    `envconfig:"EMBEDDING_DIMENSION" default:"1536"`
	EmbedRateLimitRPM  int    `envconfig:"EMBED_RATE_LIMIT_RPM" default:"60"`
	EmbedRetryAttempts int    `envconfig:"EMBED_RETRY_ATTEMPTS" default:"3"`

	MaxFileBytes     int64    `envconfig:"MAX_FILE_BYTES" default:"10485760"`
	AllowedFileTypes []string `envconfig:"ALLOWED_FILE_TYPES" default:"text/plain,text/markdown,application/pdf"`
	ChunkSize        int      `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap     int      `envconfig:"CHUNK_OVERLAP" default:"200"`

	SimilarityThreshold float32 `envconfig:"SIMILARITY_THRESHOLD" default:"0.75"`
	MaxSearchResults    int     `envconfig:"MAX_SEARCH_RESULTS" default:"5"`

	TemplatesDir           string        `envconfig:"TEMPLATES_DIR" default:"./templates"`
	CatalogRefreshInterval time.Duration `envconfig:"CATALOG_REFRESH_INTERVAL" default:"5m"`

	ExternalCallTimeout time.Duration `envconfig:"EXTERNAL_CALL_TIMEOUT" default:"60s"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"draftwise-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DRAFTWISE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", c.ChunkOverlap)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDimension)
	}
	if c.MaxFileBytes <= 0 {
		return fmt.Errorf("max file bytes must be positive, got %d", c.MaxFileBytes)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0, 1], got %f", c.SimilarityThreshold)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// TypeAllowed checks the declared MIME type against the allow-list.
// Parameters after the media type (e.g. "; charset=utf-8") are ignored.
func (c *Config) TypeAllowed(declaredType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(declaredType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	for _, allowed := range c.AllowedFileTypes {
		if mediaType == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
