package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-service/internal/domain/model"
	"docchat-service/internal/infra/adapters/embed"
)

func newTestBuilder() *Builder {
	log := zerolog.Nop()
	return NewBuilder(embed.NewLocalEmbedder(64), &log)
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	_, err := newTestBuilder().Build(context.Background(), nil)
	assert.Error(t, err)
}

func TestBuildAndSearchRanksLexicalOverlapFirst(t *testing.T) {
	idx, err := newTestBuilder().Build(context.Background(), []model.Chunk{
		{Text: "the quarterly revenue grew by twelve percent", Page: 3},
		{Text: "employee onboarding checklist and badge issuance", Page: 7},
		{Text: "revenue projections for the next quarter", Page: 4},
	})
	require.NoError(t, err)
	defer idx.Release()

	assert.Equal(t, 3, idx.Len())

	got, err := idx.Search(context.Background(), "what was the revenue", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Chunk.Text, "revenue")
	assert.Contains(t, got[1].Chunk.Text, "revenue")
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
}

func TestSearchKLargerThanIndex(t *testing.T) {
	idx, err := newTestBuilder().Build(context.Background(), []model.Chunk{
		{Text: "only one chunk here", Page: 1},
	})
	require.NoError(t, err)
	defer idx.Release()

	got, err := idx.Search(context.Background(), "chunk", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReleaseIsIdempotentAndBlocksSearch(t *testing.T) {
	idx, err := newTestBuilder().Build(context.Background(), []model.Chunk{
		{Text: "content", Page: 1},
	})
	require.NoError(t, err)

	require.NoError(t, idx.Release())
	require.NoError(t, idx.Release())

	assert.Equal(t, 0, idx.Len())
	_, err = idx.Search(context.Background(), "content", 1)
	assert.ErrorIs(t, err, ErrIndexReleased)
}

type failingEmbedder struct{}

func (failingEmbedder) Name() string { return "failing" }
func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("backend down")
}

func TestBuildSurfacesEmbedderError(t *testing.T) {
	log := zerolog.Nop()
	b := NewBuilder(failingEmbedder{}, &log)
	_, err := b.Build(context.Background(), []model.Chunk{{Text: "x", Page: 1}})
	assert.ErrorContains(t, err, "embed chunks")
}

type miscountingEmbedder struct{}

func (miscountingEmbedder) Name() string { return "miscounting" }
func (miscountingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}

func TestBuildRejectsVectorCountMismatch(t *testing.T) {
	log := zerolog.Nop()
	b := NewBuilder(miscountingEmbedder{}, &log)
	_, err := b.Build(context.Background(), []model.Chunk{{Text: "x", Page: 1}, {Text: "y", Page: 2}})
	assert.ErrorContains(t, err, "vectors")
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestDotHandlesLengthMismatch(t *testing.T) {
	assert.InDelta(t, 2.0, float64(dot([]float32{1, 1, 1}, []float32{1, 1})), 1e-6)
}
