package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftwise/draftwise/internal/api/middleware"
	"github.com/draftwise/draftwise/internal/domain"
)

type stubSuggester struct {
	lastTopK int
	results  []domain.SuggestionResult
	err      error
}

func (s *stubSuggester) Suggest(ctx context.Context, ownerID, documentID string, topK int) ([]domain.SuggestionResult, error) {
	s.lastTopK = topK
	return s.results, s.err
}

func newSuggestionRouter(h *SuggestionHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.OwnerScope)
	r.Get("/documents/{id}/suggestions", h.Suggest)
	return r
}

func TestSuggest(t *testing.T) {
	svc := &stubSuggester{results: []domain.SuggestionResult{
		{TemplateID: "nda", Score: 0.92, Rank: 1},
		{TemplateID: "invoice", Score: 0.4, Rank: 2},
	}}
	router := newSuggestionRouter(NewSuggestionHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/suggestions?top_k=2", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.lastTopK)

	var resp struct {
		Data []SuggestionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "nda", resp.Data[0].TemplateID)
	assert.Equal(t, 1, resp.Data[0].Rank)
}

func TestSuggest_NoContent(t *testing.T) {
	router := newSuggestionRouter(NewSuggestionHandler(&stubSuggester{err: domain.ErrNoContent}))

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/suggestions", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSuggest_InvalidTopK(t *testing.T) {
	router := newSuggestionRouter(NewSuggestionHandler(&stubSuggester{}))

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/suggestions?top_k=-1", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggest_EmptyResult(t *testing.T) {
	router := newSuggestionRouter(NewSuggestionHandler(&stubSuggester{}))

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/suggestions", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
