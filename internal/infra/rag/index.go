package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"docchat-service/internal/domain/model"
	"docchat-service/internal/domain/ports/adapter"
)

// ErrIndexReleased is returned by searches against a handle whose session
// has already torn it down.
var ErrIndexReleased = errors.New("index already released")

// Compile-time checks
var (
	_ adapter.IndexBuilder = (*Builder)(nil)
	_ model.IndexHandle    = (*memoryIndex)(nil)
)

// Builder constructs volatile in-process vector indexes. All indexes share
// one embedding backend, injected at construction.
type Builder struct {
	embedder adapter.EmbeddingProvider
	log      *zerolog.Logger
}

func NewBuilder(embedder adapter.EmbeddingProvider, logger *zerolog.Logger) *Builder {
	l := logger.With().Str("component", "IndexBuilder").Logger()
	return &Builder{embedder: embedder, log: &l}
}

func (b *Builder) Build(ctx context.Context, chunks []model.Chunk) (model.IndexHandle, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to index")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for _, v := range vectors {
		normalize(v)
	}
	b.log.Debug().Int("chunks", len(chunks)).Str("embedder", b.embedder.Name()).Msg("index built")
	return &memoryIndex{chunks: chunks, vectors: vectors, embedder: b.embedder}, nil
}

// memoryIndex holds one document's chunks and their normalized vectors.
// Similarity is cosine, which reduces to a dot product here.
type memoryIndex struct {
	mu       sync.RWMutex
	released bool
	chunks   []model.Chunk
	vectors  [][]float32
	embedder adapter.EmbeddingProvider
}

func (m *memoryIndex) Search(ctx context.Context, query string, k int) ([]model.Retrieved, error) {
	qv, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) == 0 {
		return nil, errors.New("embedder returned no query vector")
	}
	q := qv[0]
	normalize(q)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.released {
		return nil, ErrIndexReleased
	}

	results := make([]model.Retrieved, 0, len(m.chunks))
	for i, v := range m.vectors {
		results = append(results, model.Retrieved{Chunk: m.chunks[i], Score: dot(q, v)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *memoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Release frees the chunk and vector storage. Idempotent.
func (m *memoryIndex) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil
	}
	m.released = true
	m.chunks = nil
	m.vectors = nil
	return nil
}

// normalize scales v to unit length in place. Zero vectors are left as-is.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
