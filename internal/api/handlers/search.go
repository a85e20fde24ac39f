package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/draftwise/draftwise/internal/api"
	"github.com/draftwise/draftwise/internal/api/middleware"
	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/service"
)

type Searcher interface {
	Search(ctx context.Context, input service.SearchInput) ([]domain.ChunkMatch, error)
}

type SearchHandler struct {
	svc Searcher
}

func NewSearchHandler(svc Searcher) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query      string            `json:"query"`
	TopK       int               `json:"top_k"`
	Threshold  *float32          `json:"threshold"`
	DocumentID string            `json:"document_id"`
	Metadata   map[string]string `json:"metadata"`
}

type ChunkMatchResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	matches, err := h.svc.Search(r.Context(), service.SearchInput{
		OwnerID:    ownerID,
		Query:      req.Query,
		TopK:       req.TopK,
		Threshold:  req.Threshold,
		DocumentID: req.DocumentID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]ChunkMatchResponse, 0, len(matches))
	for _, m := range matches {
		results = append(results, ChunkMatchResponse{
			ChunkID:    m.ChunkID,
			DocumentID: m.DocumentID,
			ChunkIndex: m.ChunkIndex,
			Content:    m.Content,
			Score:      m.Score,
		})
	}

	api.Success(w, http.StatusOK, results)
}
