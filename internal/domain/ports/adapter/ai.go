package adapter

import (
	"context"

	"docchat-service/internal/domain/model"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMAdapter is the port for chat-completion providers.
type LLMAdapter interface {
	Name() string

	// CountTokens must return prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// Chat returns only the assistant text.
	Chat(ctx context.Context, model string, messages []Message) (string, error)

	// ChatWithUsage returns assistant text + usage as reported by the provider.
	ChatWithUsage(ctx context.Context, model string, messages []Message) (string, Usage, error)
}

// AnswerGenerator produces a grounded answer for a question against a
// session's document index, conditioned on recent conversation history.
type AnswerGenerator interface {
	Generate(ctx context.Context, index model.IndexHandle, question string, history []model.HistoryEntry) (string, error)
}
