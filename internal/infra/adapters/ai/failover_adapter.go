package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"docchat-service/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.LLMAdapter = (*FailoverLLM)(nil)

// FailoverLLM tries providers in order until one answers. Each provider in
// the chain resolves its own default model, so the caller passes an empty
// model name and the chain stays provider-agnostic.
type FailoverLLM struct {
	chain []adapter.LLMAdapter
	log   *zerolog.Logger
}

func NewFailoverLLM(logger *zerolog.Logger, chain ...adapter.LLMAdapter) (*FailoverLLM, error) {
	if len(chain) == 0 {
		return nil, errors.New("failover: empty provider chain")
	}
	l := logger.With().Str("component", "FailoverLLM").Logger()
	return &FailoverLLM{chain: chain, log: &l}, nil
}

func (f *FailoverLLM) Name() string {
	names := make([]string, len(f.chain))
	for i, a := range f.chain {
		names[i] = a.Name()
	}
	return strings.Join(names, ">")
}

// CountTokens uses the primary provider's counting; estimates across
// providers are close enough for budget trimming.
func (f *FailoverLLM) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return f.chain[0].CountTokens(ctx, model, messages)
}

func (f *FailoverLLM) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := f.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (f *FailoverLLM) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	var lastErr error
	for i, a := range f.chain {
		reply, usage, err := a.ChatWithUsage(ctx, model, messages)
		if err == nil {
			return reply, usage, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i < len(f.chain)-1 {
			f.log.Warn().Err(err).Str("provider", a.Name()).Str("next", f.chain[i+1].Name()).Msg("provider failed, falling over")
		}
	}
	return "", adapter.Usage{}, lastErr
}
