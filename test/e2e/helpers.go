//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftwise/draftwise/internal/api/handlers"
	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/extract"
	"github.com/draftwise/draftwise/internal/repository"
	"github.com/draftwise/draftwise/internal/server"
	"github.com/draftwise/draftwise/internal/service"
	"github.com/draftwise/draftwise/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	TemplatesDir string
	Catalog      *service.TemplateCatalog
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a pgvector container
// and an in-process server. Embeddings come from a deterministic local
// embedder, so no provider credentials are needed.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	templatesDir := t.TempDir()

	env := &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		TemplatesDir: templatesDir,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}

	env.startServer()
	return env
}

func (e *E2ETestEnv) startServer() {
	docRepo := repository.NewDocumentRepository(e.Pool)
	chunkRepo := repository.NewChunkRepository(e.Pool)
	templateRepo := repository.NewTemplateRepository(e.Pool)
	txRunner := repository.NewTxRunner(e.Pool)

	embedder := &hashEmbedder{dims: 1536}

	ingestionSvc := service.NewIngestionService(
		docRepo,
		txRunner,
		extract.DefaultRegistry(),
		embedder,
		&noopArchive{},
		service.IngestionConfig{
			MaxFileBytes: 1 << 20,
			AllowedTypes: []string{"text/plain", "text/markdown", "application/pdf"},
			Chunking:     service.ChunkConfig{Size: 200, Overlap: 40},
		},
	)
	documentSvc := service.NewDocumentService(docRepo, &noopArchive{})
	searchSvc := service.NewSearchService(embedder, chunkRepo, service.SearchDefaults{
		Threshold: 0.1,
		Limit:     5,
	})
	e.Catalog = service.NewTemplateCatalog(e.TemplatesDir, embedder, templateRepo, txRunner)
	suggestionSvc := service.NewSuggestionService(docRepo, chunkRepo, e.Catalog, 5)

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler:   handlers.NewDocumentHandler(ingestionSvc, documentSvc),
		SearchHandler:     handlers.NewSearchHandler(searchSvc),
		SuggestionHandler: handlers.NewSuggestionHandler(suggestionSvc),
		TemplateHandler:   handlers.NewTemplateHandler(e.Catalog),
	})

	srv := httptest.NewServer(router)
	e.ServerURL = srv.URL
	e.ServerCloser = srv.Close
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// WriteTemplates writes a manifest and template files into the catalog dir.
func (e *E2ETestEnv) WriteTemplates(manifest string, files map[string]string) {
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(e.TemplatesDir, name), []byte(content), 0o644); err != nil {
			e.T.Fatalf("failed to write template file %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(e.TemplatesDir, "templates_metadata.json"), []byte(manifest), 0o644); err != nil {
		e.T.Fatalf("failed to write template manifest: %v", err)
	}
}

// APIResponse mirrors the server's JSON envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// Get performs a GET request as the given owner.
func (e *E2ETestEnv) Get(path, owner string) (int, *APIResponse, error) {
	return e.do(http.MethodGet, path, owner, "", nil)
}

// Post performs a POST request with a JSON body as the given owner.
func (e *E2ETestEnv) Post(path string, body interface{}, owner string) (int, *APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}
	return e.do(http.MethodPost, path, owner, "application/json", reqBody)
}

// Delete performs a DELETE request as the given owner.
func (e *E2ETestEnv) Delete(path, owner string) (int, *APIResponse, error) {
	return e.do(http.MethodDelete, path, owner, "", nil)
}

// Upload posts a multipart file upload as the given owner.
func (e *E2ETestEnv) Upload(owner, filename, contentType string, data []byte) (int, *APIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, nil, err
	}
	if _, err := part.Write(data); err != nil {
		return 0, nil, err
	}
	if err := writer.WriteField("file_type", contentType); err != nil {
		return 0, nil, err
	}
	if err := writer.Close(); err != nil {
		return 0, nil, err
	}
	return e.do(http.MethodPost, "/documents", owner, writer.FormDataContentType(), &buf)
}

func (e *E2ETestEnv) do(method, path, owner, contentType string, body io.Reader) (int, *APIResponse, error) {
	req, err := http.NewRequest(method, e.ServerURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if len(respBody) == 0 {
		return resp.StatusCode, &APIResponse{}, nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to parse response %q: %w", respBody, err)
	}
	return resp.StatusCode, &apiResp, nil
}

// WaitForStatus polls a document until it reaches the wanted status.
func (e *E2ETestEnv) WaitForStatus(owner, documentID, want string) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		status, resp, err := e.Get("/documents/"+documentID, owner)
		if err != nil {
			e.T.Fatalf("failed to poll document: %v", err)
		}
		if status != http.StatusOK {
			e.T.Fatalf("unexpected status polling document: %d", status)
		}

		var doc struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(resp.Data, &doc); err != nil {
			e.T.Fatalf("failed to parse document: %v", err)
		}
		if doc.Status == want {
			return
		}
		if doc.Status == "failed" && want != "failed" {
			e.T.Fatalf("document failed during processing: %s", doc.Error)
		}
		time.Sleep(100 * time.Millisecond)
	}
	e.T.Fatalf("document %s never reached status %s", documentID, want)
}

// hashEmbedder maps texts to deterministic bag-of-words vectors. Texts that
// share words get similar vectors, which is enough to exercise the search
// and suggestion paths end to end.
type hashEmbedder struct {
	dims int
}

func (e *hashEmbedder) Dimensions() int { return e.dims }

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dims)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(strings.Trim(word, ".,:;!?")))
			v[h.Sum32()%uint32(e.dims)]++
		}
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		if norm > 0 {
			n := float32(math.Sqrt(norm))
			for j := range v {
				v[j] /= n
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

type noopArchive struct{}

func (a *noopArchive) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}

func (a *noopArchive) GetObject(ctx context.Context, key string) ([]byte, error) {
	return nil, domain.ErrUploadNotArchived
}

func (a *noopArchive) DeleteObject(ctx context.Context, key string) error {
	return nil
}
