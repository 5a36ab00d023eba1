package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docchat-service/internal/config"
	"docchat-service/internal/domain"
	"docchat-service/internal/domain/ports/adapter"
	"docchat-service/internal/domain/ports/repository"
	"docchat-service/internal/infra/logging"
	"docchat-service/internal/infra/metrics"
)

// Compile-time check
var _ QueryUseCase = (*queryUC)(nil)

// QueryUseCase answers a question against the session's document.
type QueryUseCase interface {
	Ask(ctx context.Context, id, question string) (string, error)
}

type queryUC struct {
	table       repository.SessionTable
	generator   adapter.AnswerGenerator
	historyView int
	log         *zerolog.Logger
}

func NewQueryUseCase(table repository.SessionTable, generator adapter.AnswerGenerator, cfg config.SessionConfig, logger *zerolog.Logger) *queryUC {
	l := logger.With().Str("component", "QueryUC").Logger()
	return &queryUC{
		table:       table,
		generator:   generator,
		historyView: cfg.HistoryView,
		log:         &l,
	}
}

// Ask retrieves context from the session's index and generates an answer
// conditioned on the last few exchanges. A failed generation mutates
// nothing; only a delivered answer is appended to the history.
func (q *queryUC) Ask(ctx context.Context, id, question string) (string, error) {
	start := time.Now()
	answer, outcome, err := q.ask(ctx, id, question)
	metrics.ObserveQuery(outcome, float64(time.Since(start).Milliseconds()))
	return answer, err
}

func (q *queryUC) ask(ctx context.Context, id, question string) (string, string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", "invalid", fmt.Errorf("%w: question required", domain.ErrInvalidArgument)
	}

	rec, err := q.table.Get(ctx, id)
	if err != nil {
		return "", "invalid", err
	}
	if !rec.Ready || rec.Index == nil {
		return "", "no_document", domain.ErrNoDocument
	}

	history := rec.RecentHistory(q.historyView)
	answer, err := q.generator.Generate(ctx, rec.Index, question, history)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return "", "rate_limited", fmt.Errorf("%w: try again shortly", domain.ErrRateLimited)
		}
		return "", "generation", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	// The session may have expired or been evicted while the model was
	// generating. The answer is still delivered; only the history append
	// is lost.
	if err := q.table.AppendExchange(ctx, id, question, answer); err != nil {
		q.log.Warn().Err(err).Str("session_id", logging.Redact(id, false)).Msg("history append skipped, session gone")
	}
	return answer, "ok", nil
}
