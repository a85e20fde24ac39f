package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/pagination"
)

// In-memory fakes for the stateful pipeline flows. Simple mocks do not
// capture the create-update-replace sequencing the pipeline depends on.

type fakeDocRepo struct {
	mu         sync.Mutex
	docs       map[string]*domain.Document
	failUpdate error
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[string]*domain.Document)}
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, domain.ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocRepo) ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*domain.Document
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID {
			copied := *doc
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return &DocumentPageResult{Items: items}, nil
}

func (r *fakeDocRepo) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if !domain.CanTransition(doc.Status, status) {
		return domain.ErrInvalidStatusChange
	}
	doc.Status = status
	if status == domain.DocumentStatusFailed {
		doc.Error = errorMsg
	} else {
		doc.Error = ""
	}
	return nil
}

func (r *fakeDocRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return domain.ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *fakeDocRepo) status(id string) domain.DocumentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id].Status
}

func (r *fakeDocRepo) errorMsg(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id].Error
}

type fakeChunkRepo struct {
	mu      sync.Mutex
	chunks  map[string][]domain.DocumentChunk
	failure error
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{chunks: make(map[string][]domain.DocumentChunk)}
}

func (r *fakeChunkRepo) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	r.chunks[documentID] = append([]domain.DocumentChunk(nil), chunks...)
	return nil
}

func (r *fakeChunkRepo) Search(ctx context.Context, params ChunkSearchParams) ([]domain.ChunkMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []domain.ChunkMatch
	for docID, chunks := range r.chunks {
		if params.DocumentID != "" && params.DocumentID != docID {
			continue
		}
		for _, c := range chunks {
			if c.OwnerID != params.OwnerID {
				continue
			}
			score := cosineSimilarity(params.Embedding, c.Embedding)
			if score >= params.Threshold {
				matches = append(matches, domain.ChunkMatch{
					ChunkID:    c.ID,
					DocumentID: c.DocumentID,
					ChunkIndex: c.ChunkIndex,
					Content:    c.Content,
					Score:      score,
				})
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if params.Limit > 0 && len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}
	return matches, nil
}

func (r *fakeChunkRepo) ListEmbeddings(ctx context.Context, documentID string) ([][]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var embeddings [][]float32
	for _, c := range r.chunks[documentID] {
		embeddings = append(embeddings, c.Embedding)
	}
	return embeddings, nil
}

func (r *fakeChunkRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks[documentID]), nil
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates []domain.TemplateDescriptor
	failure   error
}

func (r *fakeTemplateRepo) ReplaceAll(ctx context.Context, templates []domain.TemplateDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	r.templates = append([]domain.TemplateDescriptor(nil), templates...)
	return nil
}

func (r *fakeTemplateRepo) List(ctx context.Context) ([]*domain.TemplateDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.TemplateDescriptor
	for i := range r.templates {
		t := r.templates[i]
		out = append(out, &t)
	}
	return out, nil
}

func (r *fakeTemplateRepo) GetByID(ctx context.Context, id string) (*domain.TemplateDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.templates {
		if r.templates[i].ID == id {
			t := r.templates[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

// fakeTxRunner hands the same in-memory repositories to the transactional
// closure. Rollback is not simulated.
type fakeTxRunner struct {
	docs      *fakeDocRepo
	chunks    *fakeChunkRepo
	templates *fakeTemplateRepo
}

func (r *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	return fn(r)
}

func (r *fakeTxRunner) Documents() DocumentRepositoryInterface { return r.docs }
func (r *fakeTxRunner) Chunks() ChunkRepositoryInterface       { return r.chunks }
func (r *fakeTxRunner) Templates() TemplateRepositoryInterface { return r.templates }

// stubEmbedder returns deterministic vectors keyed on input length so tests
// can assert order preservation.
type stubEmbedder struct {
	mu      sync.Mutex
	dims    int
	calls   int
	batches [][]string
	failure error
	vectors map[string][]float32
}

func newStubEmbedder(dims int) *stubEmbedder {
	return &stubEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.batches = append(e.batches, append([]string(nil), texts...))
	if e.failure != nil {
		return nil, e.failure
	}
	if len(texts) == 0 {
		return nil, domain.ErrEmptyEmbedInput
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := e.vectors[text]; ok {
			out[i] = vec
			continue
		}
		vec := make([]float32, e.dims)
		vec[i%e.dims] = 1
		out[i] = vec
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int { return e.dims }

type stubExtractor struct {
	text    string
	failure error
	block   bool
}

func (e *stubExtractor) Supports(mimeType string) bool { return true }

func (e *stubExtractor) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	if e.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if e.failure != nil {
		return "", e.failure
	}
	if e.text != "" {
		return e.text, nil
	}
	return string(data), nil
}

type stubArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubArchive() *stubArchive {
	return &stubArchive{objects: make(map[string][]byte)}
}

func (a *stubArchive) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

func (a *stubArchive) GetObject(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, domain.ErrUploadNotArchived
	}
	return append([]byte(nil), data...), nil
}

func (a *stubArchive) DeleteObject(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	return nil
}

type seqUUIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqUUIDGen) NewString() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}
