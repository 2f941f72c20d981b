package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/tur-agent/internal/adapters/llm"
	"github.com/PabloGalante/tur-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/tur-agent/internal/domain"
)

type stubSource struct {
	records []domain.RetrievalRecord
	summary string
	err     error
}

func (s *stubSource) LoadRecords(context.Context) ([]domain.RetrievalRecord, error) {
	return s.records, s.err
}

func (s *stubSource) Summary(context.Context) (string, error) {
	return s.summary, nil
}

func TestReloadReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	src := &stubSource{
		records: []domain.RetrievalRecord{
			{Title: "Paraty", Embedding: []float32{0, 0}},
			{Title: "Trindade", Embedding: []float32{1, 1}},
		},
		summary: "- Paraty\n- Trindade",
	}
	svc := NewService(src, memory.NewVectorIndex())

	n, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, svc.Len())
	summary, _ := svc.Summary(ctx)
	assert.Equal(t, "- Paraty\n- Trindade", summary)

	src.records = []domain.RetrievalRecord{{Title: "Paris", Embedding: []float32{5, 5}}}
	_, err = svc.Reload(ctx)
	require.NoError(t, err)

	got, err := svc.Search(ctx, []float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Paris", got[0].Record.Title)
}

func TestReloadFailureKeepsPreviousCatalog(t *testing.T) {
	ctx := context.Background()
	src := &stubSource{records: []domain.RetrievalRecord{{Title: "Paraty", Embedding: []float32{0}}}}
	svc := NewService(src, memory.NewVectorIndex())
	_, err := svc.Reload(ctx)
	require.NoError(t, err)

	src.err = errors.New("firestore down")
	_, err = svc.Reload(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, svc.Len())

	src.err = nil
	src.records = []domain.RetrievalRecord{{Title: "a", Embedding: []float32{0}}, {Title: "b", Embedding: []float32{0, 1}}}
	_, err = svc.Reload(ctx)
	assert.ErrorIs(t, err, memory.ErrDimensionMismatch)
	assert.Equal(t, 1, svc.Len())
}

func TestNilSourceIsEmptyCatalog(t *testing.T) {
	svc := NewService(nil, memory.NewVectorIndex())
	n, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, svc.Len())
}

func TestCheckEmbedder(t *testing.T) {
	ctx := context.Background()
	src := &stubSource{records: []domain.RetrievalRecord{{Title: "Paraty", Embedding: make([]float32, 8)}}}
	svc := NewService(src, memory.NewVectorIndex())

	// Nothing loaded yet: any embedder passes.
	require.NoError(t, svc.CheckEmbedder(ctx, llm.NewMockEmbedder(3)))

	_, err := svc.Reload(ctx)
	require.NoError(t, err)

	assert.NoError(t, svc.CheckEmbedder(ctx, llm.NewMockEmbedder(8)))
	assert.ErrorIs(t, svc.CheckEmbedder(ctx, llm.NewMockEmbedder(3072)), ErrDimensionMismatch)
}
