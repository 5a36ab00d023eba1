package ai

import (
	"context"
	"strings"
	"time"

	"docchat-service/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.LLMAdapter = (*NoopAdapter)(nil)

// NoopAdapter stands in when no chat provider is configured. It answers with
// a fixed notice so uploads and session flows stay exercisable offline.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter { return &NoopAdapter{} }

func (a *NoopAdapter) Name() string { return "noop" }

func (a *NoopAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(strings.Fields(m.Content))
	}
	return n, nil
}

func (a *NoopAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := a.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (a *NoopAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	// Simulate slight processing time and respect ctx.
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	prompt, _ := a.CountTokens(ctx, model, messages)
	reply := "No language model is configured. Your document is indexed and retrievable, but answers require a provider API key."
	return reply, adapter.Usage{
		PromptTokens:     prompt,
		CompletionTokens: len(strings.Fields(reply)),
		TotalTokens:      prompt + len(strings.Fields(reply)),
	}, nil
}
