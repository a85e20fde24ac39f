package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/telemetry"
)

// metadataFileName is the catalog manifest inside the template directory.
const metadataFileName = "templates_metadata.json"

var variablePattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// templateMeta is one manifest record. ID defaults to the file name without
// extension; variables not declared are extracted from the template text.
type templateMeta struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	File        string            `json:"file"`
	FileType    string            `json:"file_type"`
	Variables   []string          `json:"variables"`
	Metadata    map[string]string `json:"metadata"`
}

// TemplateCatalog maintains an embedded, in-memory snapshot of the template
// directory. Refresh rebuilds the snapshot as a whole and persists it; reads
// always see either the previous or the new snapshot, never a mix.
type TemplateCatalog struct {
	dir      string
	embedder EmbeddingClient
	repo     TemplateRepositoryInterface
	txRunner TxRunnerInterface

	mu       sync.RWMutex
	snapshot []domain.TemplateDescriptor
}

// NewTemplateCatalog creates a new TemplateCatalog instance
func NewTemplateCatalog(dir string, embedder EmbeddingClient, repo TemplateRepositoryInterface, txRunner TxRunnerInterface) *TemplateCatalog {
	return &TemplateCatalog{dir: dir, embedder: embedder, repo: repo, txRunner: txRunner}
}

// Refresh reloads the manifest, embeds descriptor texts in one batch, and
// persists the rebuilt catalog before swapping the in-memory snapshot. A
// failed refresh leaves both the store and the snapshot untouched.
func (c *TemplateCatalog) Refresh(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "TemplateCatalog.Refresh", telemetry.SpanAttributes{})
	defer span.End()

	metas, err := c.readManifest()
	if err != nil {
		return err
	}

	if len(metas) == 0 {
		if err := c.persist(ctx, nil); err != nil {
			return err
		}
		c.swap(nil)
		return nil
	}

	descriptors := make([]domain.TemplateDescriptor, len(metas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, meta := range metas {
		g.Go(func() error {
			d, err := c.buildDescriptor(gctx, meta)
			if err != nil {
				return err
			}
			descriptors[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	seenIDs := make(map[string]struct{}, len(descriptors))
	seenNames := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if _, ok := seenIDs[d.ID]; ok {
			return domain.NewDomainError(domain.ErrCodeInvalidConfiguration, fmt.Sprintf("duplicate template id %q in manifest", d.ID))
		}
		if _, ok := seenNames[d.Name]; ok {
			return domain.NewDomainError(domain.ErrCodeInvalidConfiguration, fmt.Sprintf("duplicate template name %q in manifest", d.Name))
		}
		seenIDs[d.ID] = struct{}{}
		seenNames[d.Name] = struct{}{}
	}

	texts := make([]string, len(descriptors))
	for i := range descriptors {
		texts[i] = descriptors[i].DescriptorText()
	}
	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	for i := range descriptors {
		descriptors[i].Embedding = vectors[i]
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].ID < descriptors[j].ID })

	if err := c.persist(ctx, descriptors); err != nil {
		return err
	}
	c.swap(descriptors)
	return nil
}

// persist replaces the templates table in one transaction so readers of the
// store never observe a half-written catalog.
func (c *TemplateCatalog) persist(ctx context.Context, descriptors []domain.TemplateDescriptor) error {
	return c.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		return repos.Templates().ReplaceAll(ctx, descriptors)
	})
}

// LoadFromStore fills the snapshot from the templates table. Used at startup
// so a provider outage does not leave the catalog empty.
func (c *TemplateCatalog) LoadFromStore(ctx context.Context) error {
	stored, err := c.repo.List(ctx)
	if err != nil {
		return err
	}

	descriptors := make([]domain.TemplateDescriptor, len(stored))
	for i, t := range stored {
		descriptors[i] = *t
	}
	c.swap(descriptors)
	return nil
}

// Snapshot returns the current catalog. The returned slice must not be
// mutated by callers.
func (c *TemplateCatalog) Snapshot() []domain.TemplateDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Get returns one cataloged template by id
func (c *TemplateCatalog) Get(id string) (*domain.TemplateDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.snapshot {
		if c.snapshot[i].ID == id {
			t := c.snapshot[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

func (c *TemplateCatalog) swap(descriptors []domain.TemplateDescriptor) {
	c.mu.Lock()
	c.snapshot = descriptors
	c.mu.Unlock()
}

func (c *TemplateCatalog) readManifest() ([]templateMeta, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, metadataFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read template manifest: %w", err)
	}

	var metas []templateMeta
	if err := json.Unmarshal(data, &metas); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInvalidConfiguration, "template manifest is not valid JSON", err)
	}
	return metas, nil
}

func (c *TemplateCatalog) buildDescriptor(ctx context.Context, meta templateMeta) (domain.TemplateDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return domain.TemplateDescriptor{}, err
	}

	id := meta.ID
	if id == "" {
		id = strings.TrimSuffix(meta.File, filepath.Ext(meta.File))
	}
	fileType := meta.FileType
	if fileType == "" {
		fileType = strings.TrimPrefix(filepath.Ext(meta.File), ".")
	}

	variables := meta.Variables
	if len(variables) == 0 && meta.File != "" {
		extracted, err := c.extractVariables(meta.File)
		if err != nil {
			return domain.TemplateDescriptor{}, err
		}
		variables = extracted
	}

	now := time.Now().UTC()
	d := domain.TemplateDescriptor{
		ID:          id,
		Name:        meta.Name,
		Description: meta.Description,
		FilePath:    filepath.Join(c.dir, meta.File),
		FileType:    fileType,
		Variables:   variables,
		Metadata:    meta.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := domain.ValidateTemplate(&d); err != nil {
		return domain.TemplateDescriptor{}, domain.NewDomainErrorWithCause(domain.ErrCodeInvalidConfiguration, "invalid template manifest entry", err)
	}
	return d, nil
}

// extractVariables pulls {{placeholder}} names from the template text,
// deduplicated in order of first appearance. Binary template formats yield
// no variables.
func (c *TemplateCatalog) extractVariables(file string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, file))
	if err != nil {
		return nil, fmt.Errorf("read template file %s: %w", file, err)
	}
	if !utf8.Valid(data) {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var variables []string
	for _, match := range variablePattern.FindAllStringSubmatch(string(data), -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		variables = append(variables, name)
	}
	return variables, nil
}
