package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"docchat-service/internal/config"
	"docchat-service/internal/domain/model"
	"docchat-service/internal/domain/ports/repository"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionUseCase exposes the session lifecycle operations wrapped by the
// boundary layer.
type SessionUseCase interface {
	Create(ctx context.Context) (string, error)
	Info(ctx context.Context, id string) (model.SessionInfo, error)
	Validate(ctx context.Context, id string) bool
	Delete(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (model.TableStats, error)

	// Cleanup runs one manual expired-session sweep, returning the count removed.
	Cleanup(ctx context.Context) (int, error)

	// Shutdown drains every session and releases all index handles.
	Shutdown(ctx context.Context) (int, error)
}

type sessionUC struct {
	table repository.SessionTable
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewSessionUseCase(table repository.SessionTable, cfg config.SessionConfig, logger *zerolog.Logger) *sessionUC {
	l := logger.With().Str("component", "SessionUC").Logger()
	return &sessionUC{table: table, ttl: cfg.TTL(), log: &l}
}

func (s *sessionUC) Create(ctx context.Context) (string, error) {
	return s.table.Create(ctx)
}

// Info returns the externally visible view of a session. The lookup touches
// the record, so asking for info extends the session's lease.
func (s *sessionUC) Info(ctx context.Context, id string) (model.SessionInfo, error) {
	rec, err := s.table.Get(ctx, id)
	if err != nil {
		return model.SessionInfo{}, err
	}
	return rec.Info(time.Now(), s.ttl), nil
}

func (s *sessionUC) Validate(ctx context.Context, id string) bool {
	return s.table.Validate(ctx, id)
}

func (s *sessionUC) Delete(ctx context.Context, id string) (bool, error) {
	return s.table.Delete(ctx, id)
}

func (s *sessionUC) Stats(ctx context.Context) (model.TableStats, error) {
	return s.table.Stats(ctx)
}

func (s *sessionUC) Cleanup(ctx context.Context) (int, error) {
	removed, err := s.table.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("manual cleanup")
	}
	return removed, nil
}

func (s *sessionUC) Shutdown(ctx context.Context) (int, error) {
	return s.table.Shutdown(ctx)
}
