package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftwise/draftwise/internal/api/middleware"
	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/service"
)

type stubSearcher struct {
	lastInput service.SearchInput
	matches   []domain.ChunkMatch
	err       error
}

func (s *stubSearcher) Search(ctx context.Context, input service.SearchInput) ([]domain.ChunkMatch, error) {
	s.lastInput = input
	return s.matches, s.err
}

func newSearchRouter(h *SearchHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.OwnerScope)
	r.Post("/search", h.Search)
	return r
}

func TestSearchEndpoint(t *testing.T) {
	svc := &stubSearcher{matches: []domain.ChunkMatch{
		{ChunkID: "c1", DocumentID: "doc-1", ChunkIndex: 0, Content: "alpha", Score: 0.91},
	}}
	router := newSearchRouter(NewSearchHandler(svc))

	body := `{"query": "alpha", "top_k": 3, "threshold": 0.5}`
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "o1", svc.lastInput.OwnerID)
	assert.Equal(t, "alpha", svc.lastInput.Query)
	assert.Equal(t, 3, svc.lastInput.TopK)
	require.NotNil(t, svc.lastInput.Threshold)
	assert.InDelta(t, 0.5, *svc.lastInput.Threshold, 1e-6)

	var resp struct {
		Data []ChunkMatchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "c1", resp.Data[0].ChunkID)
}

func TestSearchEndpoint_InvalidBody(t *testing.T) {
	router := newSearchRouter(NewSearchHandler(&stubSearcher{}))

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("{"))
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint_ProviderUnavailable(t *testing.T) {
	router := newSearchRouter(NewSearchHandler(&stubSearcher{err: domain.ErrProviderUnavailable}))

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"x"}`))
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
