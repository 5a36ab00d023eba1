package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"docchat-service/internal/domain/model"
	"docchat-service/internal/domain/ports/adapter"
	"docchat-service/internal/infra/metrics"
)

// Prompt budget for a single generation. History turns are dropped oldest
// first when the assembled prompt exceeds it.
const promptTokenBudget = 6000

// Compile-time check
var _ adapter.AnswerGenerator = (*Answerer)(nil)

// Answerer produces grounded answers: retrieve top chunks from the session's
// index, assemble the prompt, call the chat model, strip decoration.
type Answerer struct {
	llm   adapter.LLMAdapter
	model string
	topK  int
	log   *zerolog.Logger
}

func NewAnswerer(llm adapter.LLMAdapter, model string, topK int, logger *zerolog.Logger) *Answerer {
	l := logger.With().Str("component", "Answerer").Logger()
	return &Answerer{llm: llm, model: model, topK: topK, log: &l}
}

func (a *Answerer) Generate(ctx context.Context, index model.IndexHandle, question string, history []model.HistoryEntry) (string, error) {
	results, err := index.Search(ctx, question, a.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}

	msgs := a.fitBudget(ctx, results, history, question)

	start := time.Now()
	reply, usage, err := a.llm.ChatWithUsage(ctx, a.model, msgs)
	latency := int(time.Since(start).Milliseconds())
	label := a.model
	if label == "" {
		// empty model means each provider resolves its own default
		label = "default"
	}
	metrics.ObserveChatUsage(a.llm.Name(), label, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, latency, err == nil)
	if err != nil {
		return "", err
	}

	answer := CleanAnswer(reply)
	if answer == "" {
		answer = "I apologize, but my response was empty. Please try rephrasing your question."
	}
	return answer, nil
}

// fitBudget assembles the prompt, dropping the oldest history exchange while
// the token count exceeds the budget. Counting is best-effort; on a counting
// failure the full prompt is used.
func (a *Answerer) fitBudget(ctx context.Context, results []model.Retrieved, history []model.HistoryEntry, question string) []adapter.Message {
	msgs := BuildMessages(results, history, question)
	for len(history) > 0 {
		n, err := a.llm.CountTokens(ctx, a.model, msgs)
		if err != nil || n <= promptTokenBudget {
			break
		}
		history = history[1:]
		a.log.Debug().Int("tokens", n).Int("history_left", len(history)).Msg("trimming history to fit prompt budget")
		msgs = BuildMessages(results, history, question)
	}
	return msgs
}
