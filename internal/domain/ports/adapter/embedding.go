package adapter

import "context"

// EmbeddingProvider maps texts to dense vectors. Implementations must return
// one vector per input text, all of the same dimension.
type EmbeddingProvider interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
