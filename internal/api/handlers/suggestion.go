package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/draftwise/draftwise/internal/api"
	"github.com/draftwise/draftwise/internal/api/middleware"
	"github.com/draftwise/draftwise/internal/domain"
)

type Suggester interface {
	Suggest(ctx context.Context, ownerID, documentID string, topK int) ([]domain.SuggestionResult, error)
}

type SuggestionHandler struct {
	svc Suggester
}

func NewSuggestionHandler(svc Suggester) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

type SuggestionResponse struct {
	TemplateID string  `json:"template_id"`
	Score      float32 `json:"score"`
	Rank       int     `json:"rank"`
}

func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid top_k")
			return
		}
		topK = parsed
	}

	results, err := h.svc.Suggest(r.Context(), ownerID, id, topK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]SuggestionResponse, 0, len(results))
	for _, s := range results {
		out = append(out, SuggestionResponse{
			TemplateID: s.TemplateID,
			Score:      s.Score,
			Rank:       s.Rank,
		})
	}

	api.Success(w, http.StatusOK, out)
}
