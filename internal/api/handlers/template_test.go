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

type stubCatalog struct {
	templates []domain.TemplateDescriptor
	refreshed int
	err       error
}

func (c *stubCatalog) Snapshot() []domain.TemplateDescriptor { return c.templates }

func (c *stubCatalog) Get(id string) (*domain.TemplateDescriptor, error) {
	for i := range c.templates {
		if c.templates[i].ID == id {
			return &c.templates[i], nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

func (c *stubCatalog) Refresh(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	c.refreshed++
	return nil
}

func newTemplateRouter(h *TemplateHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.OwnerScope)
	r.Get("/templates", h.List)
	r.Get("/templates/{id}", h.Get)
	r.Post("/templates/refresh", h.Refresh)
	return r
}

func TestTemplateList(t *testing.T) {
	catalog := &stubCatalog{templates: []domain.TemplateDescriptor{
		{ID: "nda", Name: "NDA", Variables: []string{"party_a"}},
	}}
	router := newTemplateRouter(NewTemplateHandler(catalog))

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []TemplateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "nda", resp.Data[0].ID)
	assert.Equal(t, []string{"party_a"}, resp.Data[0].Variables)
}

func TestTemplateGet_NotFound(t *testing.T) {
	router := newTemplateRouter(NewTemplateHandler(&stubCatalog{}))

	req := httptest.NewRequest(http.MethodGet, "/templates/missing", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateRefresh(t *testing.T) {
	catalog := &stubCatalog{}
	router := newTemplateRouter(NewTemplateHandler(catalog))

	req := httptest.NewRequest(http.MethodPost, "/templates/refresh", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, catalog.refreshed)
}

func TestTemplateRefresh_ProviderDown(t *testing.T) {
	router := newTemplateRouter(NewTemplateHandler(&stubCatalog{err: domain.ErrProviderUnavailable}))

	req := httptest.NewRequest(http.MethodPost, "/templates/refresh", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
