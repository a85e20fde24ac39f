package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftwise/draftwise/internal/api"
	"github.com/draftwise/draftwise/internal/api/middleware"
	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/service"
)

type stubIngestor struct {
	lastInput service.IngestInput
	doc       *domain.Document
	err       error
}

func (s *stubIngestor) IngestAsync(ctx context.Context, input service.IngestInput) (*domain.Document, error) {
	s.lastInput = input
	return s.doc, s.err
}

type stubDocReader struct {
	doc     *domain.Document
	list    *service.ListDocumentsOutput
	data    []byte
	err     error
	deleted []string
}

func (s *stubDocReader) Get(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	return s.doc, s.err
}

func (s *stubDocReader) List(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

func (s *stubDocReader) Download(ctx context.Context, ownerID, id string) (*domain.Document, []byte, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.doc, s.data, nil
}

func (s *stubDocReader) Delete(ctx context.Context, ownerID, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, ownerID+"/"+id)
	return nil
}

func newDocumentRouter(h *DocumentHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.OwnerScope)
	r.Post("/documents", h.Upload)
	r.Get("/documents", h.List)
	r.Get("/documents/{id}", h.Get)
	r.Get("/documents/{id}/download", h.Download)
	r.Delete("/documents/{id}", h.Delete)
	return r
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("file_type", contentType))
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func testDocument() *domain.Document {
	return domain.NewDocument("doc-1", "o1", "a.txt", "text/plain", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestDocumentUpload(t *testing.T) {
	ingestor := &stubIngestor{doc: testDocument()}
	router := newDocumentRouter(NewDocumentHandler(ingestor, &stubDocReader{}))

	body, contentType := multipartUpload(t, "a.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "o1", ingestor.lastInput.OwnerID)
	assert.Equal(t, "a.txt", ingestor.lastInput.Filename)
	assert.Equal(t, "text/plain", ingestor.lastInput.FileType)
	assert.Equal(t, []byte("hello"), ingestor.lastInput.Data)

	var resp struct {
		Data DocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.Data.ID)
	assert.Equal(t, "pending", resp.Data.Status)
}

func TestDocumentUpload_MissingOwner(t *testing.T) {
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, &stubDocReader{}))

	body, contentType := multipartUpload(t, "a.txt", "text/plain", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentUpload_MissingFile(t *testing.T) {
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, &stubDocReader{}))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentUpload_ValidationErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		router := newDocumentRouter(NewDocumentHandler(&stubIngestor{err: tt.err}, &stubDocReader{}))

		body, contentType := multipartUpload(t, "a.txt", "text/plain", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-Owner-ID", "o1")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code)
	}
}

func TestDocumentGet(t *testing.T) {
	doc := testDocument()
	doc.Status = domain.DocumentStatusFailed
	doc.Error = "extraction failed"
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, &stubDocReader{doc: doc}))

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data DocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Data.Status)
	assert.Equal(t, "extraction failed", resp.Data.Error)
}

func TestDocumentGet_NotFound(t *testing.T) {
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, &stubDocReader{err: domain.ErrDocumentNotFound}))

	req := httptest.NewRequest(http.MethodGet, "/documents/missing", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeNotFound, resp.Code)
}

func TestDocumentList(t *testing.T) {
	reader := &stubDocReader{list: &service.ListDocumentsOutput{
		Items:   []*domain.Document{testDocument()},
		Cursor:  "next",
		HasMore: true,
	}}
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, reader))

	req := httptest.NewRequest(http.MethodGet, "/documents?limit=1", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data DocumentListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "next", resp.Data.Cursor)
	assert.True(t, resp.Data.HasMore)
}

func TestDocumentList_InvalidLimit(t *testing.T) {
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, &stubDocReader{}))

	req := httptest.NewRequest(http.MethodGet, "/documents?limit=abc", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentDownload(t *testing.T) {
	reader := &stubDocReader{doc: testDocument(), data: []byte("original bytes")}
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, reader))

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/download", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="a.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "original bytes", rec.Body.String())
}

func TestDocumentDownload_NotArchived(t *testing.T) {
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, &stubDocReader{err: domain.ErrUploadNotArchived}))

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/download", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentDelete(t *testing.T) {
	reader := &stubDocReader{}
	router := newDocumentRouter(NewDocumentHandler(&stubIngestor{}, reader))

	req := httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil)
	req.Header.Set("X-Owner-ID", "o1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"o1/doc-1"}, reader.deleted)
}
