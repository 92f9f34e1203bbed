package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/domain"
)

func TestStorage_SearchRanksByCosine(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2))
	chunks := []domain.Chunk{{ChunkID: "a"}, {ChunkID: "b"}, {ChunkID: "c"}}
	vectors := [][]float64{{1, 0}, {0, 1}, {0.6, 0.8}}
	require.NoError(t, s.Upsert(ctx, chunks, vectors))

	res, err := s.Search(ctx, []float64{0, 1}, 2)

	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "b", res[0].Chunk.ChunkID)
	assert.Equal(t, "c", res[1].Chunk.ChunkID)
	assert.InDelta(t, 0.8, res[1].Score, 1e-12)
}

func TestStorage_TopKLargerThanStore(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 1))
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{{ChunkID: "a"}}, [][]float64{{1}}))

	res, err := s.Search(ctx, []float64{1}, 10)

	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestStorage_RejectsWrongDimension(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2))

	assert.Error(t, s.Upsert(ctx, []domain.Chunk{{}}, [][]float64{{1, 2, 3}}))
	_, err := s.Search(ctx, []float64{1}, 1)
	assert.Error(t, err)
}

func TestStorage_InitRejectsZero(t *testing.T) {
	assert.Error(t, NewStorage().Init(context.Background(), 0))
}

func TestStorage_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 1))
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{{}}, [][]float64{{1}}))

	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, 0, s.Len())
}
