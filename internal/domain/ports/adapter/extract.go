package adapter

import (
	"context"

	"docchat-service/internal/domain/model"
)

// DocumentExtractor turns a file on disk into ordered text sections.
// The file's extension selects the concrete format reader.
type DocumentExtractor interface {
	Extract(ctx context.Context, path string) ([]model.Section, error)
}

// Chunker splits extracted sections into bounded chunks, retaining the
// source page of each chunk. Pure; never fails.
type Chunker interface {
	Chunk(sections []model.Section) []model.Chunk
}
