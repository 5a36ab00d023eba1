package rag

import (
	"strings"

	"docchat-service/internal/config"
	"docchat-service/internal/domain/model"
	"docchat-service/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Chunker = (*Splitter)(nil)

// Splitter cuts extracted sections into fixed-size windows with overlap,
// keeping the source page on every chunk.
type Splitter struct {
	size    int
	overlap int
}

func NewSplitter(cfg config.RAGConfig) *Splitter {
	return &Splitter{size: cfg.ChunkSize, overlap: cfg.ChunkOverlap}
}

func (s *Splitter) Chunk(sections []model.Section) []model.Chunk {
	var out []model.Chunk
	for _, sec := range sections {
		for _, piece := range splitText(sec.Text, s.size, s.overlap) {
			out = append(out, model.Chunk{Text: piece, Page: sec.Page})
		}
	}
	return out
}

// splitText slices text into rune-safe windows of at most size runes. The
// overlap is clamped below size so the scan always advances.
func splitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	step := size - overlap

	var parts []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			parts = append(parts, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return parts
}
