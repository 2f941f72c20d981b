package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyIndex        = errors.New("vector index is empty")
)

// VectorIndex is an exact nearest-neighbour index over squared euclidean distance.
// Ties are broken by insertion order, so repeated searches return the same ranking.
type VectorIndex struct {
	mu        sync.RWMutex
	records   []domain.RetrievalRecord
	dimension int
}

func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Load replaces the whole index. Records without an embedding are skipped;
// every other record must share the dimension of the first one.
func (ix *VectorIndex) Load(records []domain.RetrievalRecord) (int, error) {
	loaded := make([]domain.RetrievalRecord, 0, len(records))
	dim := 0
	for i, r := range records {
		if len(r.Embedding) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(r.Embedding)
		}
		if len(r.Embedding) != dim {
			return 0, fmt.Errorf("record %d (%q): %w: got %d, want %d", i, r.Title, ErrDimensionMismatch, len(r.Embedding), dim)
		}
		loaded = append(loaded, r)
	}

	ix.mu.Lock()
	ix.records = loaded
	ix.dimension = dim
	ix.mu.Unlock()

	return len(loaded), nil
}

// Dimension is the vector size of the loaded records, 0 when empty.
func (ix *VectorIndex) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

func (ix *VectorIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

func (ix *VectorIndex) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.records) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("query: %w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if k <= 0 {
		return []domain.RetrievalResult{}, nil
	}

	results := make([]domain.RetrievalResult, len(ix.records))
	for i, r := range ix.records {
		results[i] = domain.RetrievalResult{Record: r, Distance: squaredL2(vector, r.Embedding)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
