package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"docchat-service/internal/domain/model"
	"docchat-service/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.DocumentExtractor = (*Extractor)(nil)

// Extractor reads a document from disk into ordered text sections,
// dispatching on the file extension.
type Extractor struct {
	log *zerolog.Logger
}

func NewExtractor(logger *zerolog.Logger) *Extractor {
	l := logger.With().Str("component", "Extractor").Logger()
	return &Extractor{log: &l}
}

func (e *Extractor) Extract(ctx context.Context, path string) ([]model.Section, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return extractPDF(path)
	case ".docx", ".doc":
		// Legacy .doc is attempted through the docx path; a real OLE2
		// container fails to open as a zip and surfaces as an
		// extraction error.
		return extractDOCX(path)
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}
