package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docchat-service/internal/config"
	"docchat-service/internal/domain"
	"docchat-service/internal/domain/model"
	"docchat-service/internal/domain/ports/adapter"
	"docchat-service/internal/domain/ports/repository"
	"docchat-service/internal/infra/logging"
	"docchat-service/internal/infra/metrics"
)

// Compile-time check
var _ IngestUseCase = (*ingestUC)(nil)

// IngestUseCase turns an uploaded document into the session's searchable
// index: extract, chunk, embed, then swap the index atomically.
type IngestUseCase interface {
	Ingest(ctx context.Context, id string, data []byte, filename string) (*model.IngestResult, error)
}

type ingestUC struct {
	table       repository.SessionTable
	extractor   adapter.DocumentExtractor
	chunker     adapter.Chunker
	builder     adapter.IndexBuilder
	maxBytes    int64
	allowedExts []string
	log         *zerolog.Logger
}

func NewIngestUseCase(
	table repository.SessionTable,
	extractor adapter.DocumentExtractor,
	chunker adapter.Chunker,
	builder adapter.IndexBuilder,
	cfg config.UploadConfig,
	logger *zerolog.Logger,
) *ingestUC {
	l := logger.With().Str("component", "IngestUC").Logger()
	return &ingestUC{
		table:       table,
		extractor:   extractor,
		chunker:     chunker,
		builder:     builder,
		maxBytes:    cfg.MaxBytes,
		allowedExts: cfg.AllowedExts,
		log:         &l,
	}
}

// Ingest is all-or-nothing: any failure before the install leaves the
// session's prior document state in place, except that a document the
// extractor rejects outright also clears any previously installed index.
// No partial index is ever visible to readers.
func (u *ingestUC) Ingest(ctx context.Context, id string, data []byte, filename string) (*model.IngestResult, error) {
	start := time.Now()
	res, outcome, err := u.ingest(ctx, id, data, filename)
	chunks := 0
	if res != nil {
		chunks = res.ChunkCount
	}
	metrics.ObserveIngest(outcome, float64(time.Since(start).Milliseconds()), chunks)
	return res, err
}

func (u *ingestUC) ingest(ctx context.Context, id string, data []byte, filename string) (*model.IngestResult, string, error) {
	// The boundary layer already enforces these limits; re-checked here so
	// the contract holds for any caller.
	if err := u.validate(data, filename); err != nil {
		return nil, "invalid", err
	}

	// Confirm the session is live (and touch it) before doing expensive work.
	if _, err := u.table.Get(ctx, id); err != nil {
		return nil, "invalid", err
	}

	tmpDir, err := os.MkdirTemp("", "docchat-ingest-*")
	if err != nil {
		return nil, "internal", fmt.Errorf("%w: create temp dir: %v", domain.ErrInternal, err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			u.log.Warn().Err(err).Str("dir", tmpDir).Msg("temp dir removal failed")
		}
	}()

	tmpPath := filepath.Join(tmpDir, "upload"+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return nil, "internal", fmt.Errorf("%w: spill upload: %v", domain.ErrInternal, err)
	}

	sections, err := u.extractor.Extract(ctx, tmpPath)
	if err != nil {
		u.rollback(ctx, id)
		return nil, "extraction", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if !hasText(sections) {
		u.rollback(ctx, id)
		return nil, "extraction", fmt.Errorf("%w: document contains no extractable text", domain.ErrExtraction)
	}

	chunks := u.chunker.Chunk(sections)
	if len(chunks) == 0 {
		u.rollback(ctx, id)
		return nil, "extraction", fmt.Errorf("%w: document produced no chunks", domain.ErrExtraction)
	}

	idx, err := u.builder.Build(ctx, chunks)
	if err != nil {
		// The document itself is fine; keep whatever index the session had.
		return nil, "index_build", fmt.Errorf("%w: %v", domain.ErrIndexBuild, err)
	}

	if err := u.table.InstallIndex(ctx, id, idx, filepath.Base(filename), len(chunks)); err != nil {
		// Session expired or was deleted while we were building. Late
		// installs against a dead id are rejected, never resurrected.
		if relErr := idx.Release(); relErr != nil {
			u.log.Warn().Err(relErr).Msg("release of orphaned index failed")
		}
		u.log.Warn().
			Str("session_id", logging.Redact(id, false)).
			Str("document", filepath.Base(filename)).
			Msg("late index install rejected, session gone")
		return nil, "invalid", err
	}

	// Extraction and embedding churn a lot of garbage per upload.
	runtime.GC()

	u.log.Info().
		Str("session_id", logging.Redact(id, false)).
		Str("document", filepath.Base(filename)).
		Int("chunks", len(chunks)).
		Msg("document ingested")
	return &model.IngestResult{
		Filename:   filepath.Base(filename),
		ChunkCount: len(chunks),
		Ready:      true,
	}, "ok", nil
}

func (u *ingestUC) validate(data []byte, filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: filename required", domain.ErrInvalidArgument)
	}
	if len(data) == 0 {
		return domain.ErrEmptyFile
	}
	if int64(len(data)) > u.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, len(data), u.maxBytes)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range u.allowedExts {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", domain.ErrUnsupportedType, ext)
}

// rollback clears the session's document state after a corrupt upload. The
// old index would answer questions about a document the user believes is
// replaced, so it is torn down rather than kept.
func (u *ingestUC) rollback(ctx context.Context, id string) {
	if err := u.table.ClearDocument(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		u.log.Warn().Err(err).Str("session_id", logging.Redact(id, false)).Msg("document state rollback failed")
	}
}

func hasText(sections []model.Section) bool {
	for _, s := range sections {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}
