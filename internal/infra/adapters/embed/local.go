package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"docchat-service/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.EmbeddingProvider = (*LocalEmbedder)(nil)

// LocalEmbedder produces deterministic bag-of-words hash vectors. It has no
// semantic power beyond lexical overlap, but it needs no API key, so the
// service stays fully functional offline; cosine similarity still ranks
// chunks sharing words with the query first.
type LocalEmbedder struct {
	dim int
}

func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &LocalEmbedder{dim: dim}
}

func (l *LocalEmbedder) Name() string { return "local" }

func (l *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, l.dim)
		for _, tok := range tokenize(t) {
			h := fnv.New32a()
			h.Write([]byte(tok))
			v[h.Sum32()%uint32(l.dim)]++
		}
		out[i] = v
	}
	return out, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
