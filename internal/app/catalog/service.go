// Package catalog owns the searchable package catalog and its static summary.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

// ErrDimensionMismatch means query embeddings cannot be compared with the catalog.
var ErrDimensionMismatch = errors.New("embedding dimension does not match catalog")

// Index is the writable side of a vector index.
type Index interface {
	domain.VectorIndex
	Load(records []domain.RetrievalRecord) (int, error)
	Dimension() int
}

// Service rebuilds the index wholesale from a source and serves searches and the
// summary in between rebuilds. It implements domain.VectorIndex.
type Service struct {
	source domain.CatalogSource
	index  Index

	mu      sync.RWMutex
	summary string
}

func NewService(source domain.CatalogSource, index Index) *Service {
	return &Service{source: source, index: index}
}

// Reload replaces the index and the summary. On error the previous catalog stays in place.
func (s *Service) Reload(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, nil
	}

	records, err := s.source.LoadRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog records: %w", err)
	}
	summary, err := s.source.Summary(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog summary: %w", err)
	}

	n, err := s.index.Load(records)
	if err != nil {
		return 0, fmt.Errorf("build catalog index: %w", err)
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("catalog reloaded", "records", n, "skipped", len(records)-n)
	return n, nil
}

func (s *Service) Summary(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary, nil
}

func (s *Service) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error) {
	return s.index.Search(ctx, vector, k)
}

func (s *Service) Len() int {
	return s.index.Len()
}

// CheckEmbedder embeds a sample query and compares its size with the loaded
// vectors. An empty catalog always passes.
func (s *Service) CheckEmbedder(ctx context.Context, embedder domain.Embedder) error {
	want := s.index.Dimension()
	if want == 0 {
		return nil
	}
	vec, err := embedder.Embed(ctx, "pacote de viagem")
	if err != nil {
		return fmt.Errorf("embed sample query: %w", err)
	}
	if len(vec) != want {
		return fmt.Errorf("%w: embedder returns %d, catalog has %d", ErrDimensionMismatch, len(vec), want)
	}
	return nil
}
