package adapter

import (
	"context"

	"docchat-service/internal/domain/model"
)

// IndexBuilder constructs a searchable vector index over document chunks
// using the shared embedding backend it was created with.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []model.Chunk) (model.IndexHandle, error)
}
