package service

import (
	"context"
	"math"
	"sort"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/telemetry"
)

// CatalogProvider exposes the current template catalog snapshot
type CatalogProvider interface {
	Snapshot() []domain.TemplateDescriptor
}

// SuggestionService ranks cataloged templates against a document. The
// document is represented by the centroid of its stored chunk embeddings.
type SuggestionService struct {
	docs        DocumentRepositoryInterface
	chunks      ChunkRepositoryInterface
	catalog     CatalogProvider
	defaultTopK int
}

// NewSuggestionService creates a new SuggestionService instance
func NewSuggestionService(
	docs DocumentRepositoryInterface,
	chunks ChunkRepositoryInterface,
	catalog CatalogProvider,
	defaultTopK int,
) *SuggestionService {
	return &SuggestionService{
		docs:        docs,
		chunks:      chunks,
		catalog:     catalog,
		defaultTopK: defaultTopK,
	}
}

// Suggest returns templates ranked by cosine similarity to the document's
// chunk centroid. Ties rank by ascending template id. A document with no
// stored chunks yields NoContent; an empty catalog yields an empty result.
func (s *SuggestionService) Suggest(ctx context.Context, ownerID, documentID string, topK int) ([]domain.SuggestionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SuggestionService.Suggest", telemetry.SpanAttributes{
		OwnerID:    ownerID,
		DocumentID: documentID,
	})
	defer span.End()

	if _, err := s.docs.GetByID(ctx, ownerID, documentID); err != nil {
		return nil, err
	}

	embeddings, err := s.chunks.ListEmbeddings(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, domain.ErrNoContent
	}

	centroid := meanVector(embeddings)

	templates := s.catalog.Snapshot()
	results := make([]domain.SuggestionResult, 0, len(templates))
	for i := range templates {
		if len(templates[i].Embedding) == 0 {
			continue
		}
		results = append(results, domain.SuggestionResult{
			TemplateID: templates[i].ID,
			Score:      cosineSimilarity(centroid, templates[i].Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].TemplateID < results[j].TemplateID
	})

	limit := topK
	if limit <= 0 {
		limit = s.defaultTopK
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	return results, nil
}

func meanVector(vectors [][]float32) []float32 {
	mean := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			mean[i] += v
		}
	}
	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
