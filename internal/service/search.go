package service

import (
	"context"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/telemetry"
)

// SearchDefaults carry the configured threshold and result cap, both
// overridable per request.
type SearchDefaults struct {
	Threshold float32
	Limit     int
}

// SearchService answers free-text similarity queries over stored chunks
type SearchService struct {
	embedder EmbeddingClient
	chunks   ChunkRepositoryInterface
	defaults SearchDefaults
}

// NewSearchService creates a new SearchService instance
func NewSearchService(embedder EmbeddingClient, chunks ChunkRepositoryInterface, defaults SearchDefaults) *SearchService {
	return &SearchService{embedder: embedder, chunks: chunks, defaults: defaults}
}

type SearchInput struct {
	OwnerID    string
	Query      string
	TopK       int
	Threshold  *float32
	DocumentID string
	Metadata   map[string]string
}

// Search embeds the query and returns the owner's chunks above the
// similarity threshold, best matches first.
func (s *SearchService) Search(ctx context.Context, input SearchInput) ([]domain.ChunkMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		OwnerID: input.OwnerID,
	})
	defer span.End()

	if input.OwnerID == "" {
		return nil, domain.ErrMissingRequiredField
	}
	if input.Query == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "query must not be empty")
	}

	threshold := s.defaults.Threshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}
	limit := input.TopK
	if limit <= 0 {
		limit = s.defaults.Limit
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{input.Query})
	if err != nil {
		return nil, err
	}

	matches, err := s.chunks.Search(ctx, ChunkSearchParams{
		OwnerID:    input.OwnerID,
		Embedding:  vectors[0],
		Threshold:  threshold,
		Limit:      limit,
		DocumentID: input.DocumentID,
		Metadata:   input.Metadata,
	})
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []domain.ChunkMatch{}
	}
	return matches, nil
}
