// Package handlers implements the HTTP endpoints of the daemon.
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/draftwise/draftwise/internal/api"
	"github.com/draftwise/draftwise/internal/api/middleware"
	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/service"
)

const multipartMemoryLimit = 10 << 20

type Ingestor interface {
	IngestAsync(ctx context.Context, input service.IngestInput) (*domain.Document, error)
}

type DocumentReader interface {
	Get(ctx context.Context, ownerID, id string) (*domain.Document, error)
	List(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
	Download(ctx context.Context, ownerID, id string) (*domain.Document, []byte, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type DocumentHandler struct {
	ingestor Ingestor
	docs     DocumentReader
}

func NewDocumentHandler(ingestor Ingestor, docs DocumentReader) *DocumentHandler {
	return &DocumentHandler{ingestor: ingestor, docs: docs}
}

type DocumentResponse struct {
	ID        string            `json:"id"`
	Filename  string            `json:"filename"`
	FileType  string            `json:"file_type"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

type DocumentListResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:        d.ID,
		Filename:  d.Filename,
		FileType:  d.FileType,
		Status:    string(d.Status),
		Error:     d.Error,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: d.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Upload accepts a multipart upload and starts ingestion. The response
// carries the pending document; clients poll Get for the outcome.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusBadRequest, "missing owner scope")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	fileType := r.FormValue("file_type")
	if fileType == "" {
		fileType = header.Header.Get("Content-Type")
	}

	doc, err := h.ingestor.IngestAsync(r.Context(), service.IngestInput{
		OwnerID:  ownerID,
		Filename: header.Filename,
		FileType: fileType,
		Data:     data,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.docs.Get(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.docs.List(r.Context(), service.ListDocumentsInput{
		OwnerID: ownerID,
		Cursor:  r.URL.Query().Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(out.Items))
	for _, doc := range out.Items {
		items = append(items, documentToResponse(doc))
	}

	api.Success(w, http.StatusOK, DocumentListResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}

// Download serves the archived original upload.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, data, err := h.docs.Download(r.Context(), ownerID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	contentType := doc.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.docs.Delete(r.Context(), ownerID, id); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
