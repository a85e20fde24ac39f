package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/draftwise/draftwise/internal/api"
	"github.com/draftwise/draftwise/internal/domain"
)

type Catalog interface {
	Snapshot() []domain.TemplateDescriptor
	Get(id string) (*domain.TemplateDescriptor, error)
	Refresh(ctx context.Context) error
}

type TemplateHandler struct {
	catalog Catalog
}

func NewTemplateHandler(catalog Catalog) *TemplateHandler {
	return &TemplateHandler{catalog: catalog}
}

type TemplateResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	FileType    string            `json:"file_type"`
	Variables   []string          `json:"variables,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func templateToResponse(t *domain.TemplateDescriptor) *TemplateResponse {
	return &TemplateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		FileType:    t.FileType,
		Variables:   t.Variables,
		Metadata:    t.Metadata,
	}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshot := h.catalog.Snapshot()
	out := make([]*TemplateResponse, 0, len(snapshot))
	for i := range snapshot {
		out = append(out, templateToResponse(&snapshot[i]))
	}
	api.Success(w, http.StatusOK, out)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	tpl, err := h.catalog.Get(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, templateToResponse(tpl))
}

func (h *TemplateHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]int{"templates": len(h.catalog.Snapshot())})
}
