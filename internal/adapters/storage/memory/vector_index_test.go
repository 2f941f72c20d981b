package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/tur-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/tur-agent/internal/domain"
)

func rec(title string, v ...float32) domain.RetrievalRecord {
	return domain.RetrievalRecord{Title: title, Embedding: v}
}

func titles(results []domain.RetrievalResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Record.Title)
	}
	return out
}

func TestVectorIndexSearchOrdersByDistance(t *testing.T) {
	ix := memory.NewVectorIndex()
	n, err := ix.Load([]domain.RetrievalRecord{
		rec("far", 10, 10),
		rec("near", 1, 0),
		rec("exact", 0, 0),
		rec("mid", 3, 0),
	})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	got, err := ix.Search(context.Background(), []float32{0, 0}, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"exact", "near", "mid"}, titles(got))
	assert.InDelta(t, 0.0, got[0].Distance, 1e-9)
	assert.InDelta(t, 1.0, got[1].Distance, 1e-9)
	assert.InDelta(t, 9.0, got[2].Distance, 1e-9)
}

func TestVectorIndexTiesKeepInsertionOrderAndRepeat(t *testing.T) {
	ix := memory.NewVectorIndex()
	_, err := ix.Load([]domain.RetrievalRecord{
		rec("b", 0, 1),
		rec("a", 1, 0),
		rec("c", 0, -1),
		rec("d", -1, 0),
	})
	require.NoError(t, err)

	first, err := ix.Search(context.Background(), []float32{0, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, titles(first))

	for i := 0; i < 10; i++ {
		again, err := ix.Search(context.Background(), []float32{0, 0}, 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestVectorIndexEdgeCases(t *testing.T) {
	ix := memory.NewVectorIndex()

	_, err := ix.Search(context.Background(), []float32{1}, 3)
	assert.ErrorIs(t, err, memory.ErrEmptyIndex)

	_, err = ix.Load([]domain.RetrievalRecord{rec("x", 1, 2), rec("y", 1)})
	assert.ErrorIs(t, err, memory.ErrDimensionMismatch)

	n, err := ix.Load([]domain.RetrievalRecord{rec("x", 1, 2), {Title: "no vector"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ix.Search(context.Background(), []float32{1, 2, 3}, 3)
	assert.ErrorIs(t, err, memory.ErrDimensionMismatch)

	got, err := ix.Search(context.Background(), []float32{1, 2}, 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
