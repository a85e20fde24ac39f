package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/draftwise/draftwise/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from text-embedding-3-small
	DefaultEmbeddingDimensions = 1536
	// DefaultRateLimitRPM bounds requests per minute against the provider
	DefaultRateLimitRPM = 60
	// DefaultRetryAttempts bounds internal retries after throttling
	DefaultRetryAttempts = 3
)

// ErrNoAPIKey is returned when the OpenAI API key is not set
var ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// EmbeddingAPI defines the provider call for batch embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Client wraps the OpenAI API client with rate limiting, bounded retry on
// throttling, and per-vector dimension verification.
type Client struct {
	api           EmbeddingAPI
	dimensions    int
	retryAttempts int
	limiter       *rate.Limiter
	backoffBase   time.Duration
}

type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API with one batched request
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	// Response order follows the Index field, not slice order.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("provider returned out-of-range embedding index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	RateLimitRPM        int
	RetryAttempts       int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	rpm := cfg.RateLimitRPM
	if rpm <= 0 {
		rpm = DefaultRateLimitRPM
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	return &Client{
		api:           NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel),
		dimensions:    dimensions,
		retryAttempts: attempts,
		limiter:       rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		backoffBase:   time.Second,
	}
}

// NewClientFromEnv creates a new OpenAI client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// EmbedBatch generates one embedding per input text, order-preserving, in a
// single provider request. Throttling is retried internally with exponential
// backoff before being surfaced as RateLimited.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, domain.ErrEmptyEmbedInput
	}

	var vectors [][]float32
	var err error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, classifyError(ctx.Err())
			}
		}

		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return nil, classifyError(waitErr)
		}

		vectors, err = c.api.CreateEmbeddings(ctx, texts)
		if err == nil {
			break
		}
		if !isThrottled(err) {
			return nil, classifyError(err)
		}
	}
	if err != nil {
		return nil, classifyError(err)
	}

	for _, vec := range vectors {
		if len(vec) != c.dimensions {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
				fmt.Sprintf("provider returned %d-dimensional embedding, expected %d", len(vec), c.dimensions), nil)
		}
	}

	return vectors, nil
}

// Dimensions returns the configured embedding dimensionality.
func (c *Client) Dimensions() int {
	return c.dimensions
}

func isThrottled(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	return false
}

func classifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewDomainErrorWithCause(domain.ErrCodeTimeout, "embedding request timed out", err)
	case errors.Is(err, context.Canceled):
		return err
	case isThrottled(err):
		return domain.NewDomainErrorWithCause(domain.ErrCodeRateLimited, "embedding provider throttled the request", err)
	default:
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderUnavailable, "embedding provider request failed", err)
	}
}
