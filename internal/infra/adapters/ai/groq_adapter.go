package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docchat-service/internal/domain"
	"docchat-service/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.LLMAdapter = (*GroqAdapter)(nil)

// GroqAdapter talks to Groq's OpenAI-compatible gateway.
// Base URL defaults to https://api.groq.com/openai/v1 (configurable).
// Chat completions path is the same as OpenAI: /chat/completions
// Authorization: Bearer <GROQ_API_KEY>
type GroqAdapter struct {
	apiKey      string
	base        string // e.g., https://api.groq.com/openai/v1
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

func NewGroqAdapter(apiKey, model, base string, maxTokens int, temperature float64) (*GroqAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("groq api key empty")
	}
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	if base == "" {
		base = "https://api.groq.com/openai/v1"
	}
	return &GroqAdapter{
		apiKey:      apiKey,
		base:        strings.TrimRight(base, "/"),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (g *GroqAdapter) Name() string { return "groq" }

// CountTokens is local: Groq exposes no counting endpoint, so the tiktoken
// estimate stands in.
func (g *GroqAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return countTokens(g.resolve(model), messages)
}

func (g *GroqAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := g.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (g *GroqAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	reqBody := struct {
		Model       string            `json:"model"`
		Messages    []adapter.Message `json:"messages"`
		MaxTokens   int               `json:"max_tokens,omitempty"`
		Temperature float64           `json:"temperature,omitempty"`
	}{
		Model:       g.resolve(model),
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", adapter.Usage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", adapter.Usage{}, fmt.Errorf("groq http 429: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode >= 300 {
		return "", adapter.Usage{}, fmt.Errorf("groq http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message adapter.Message `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", adapter.Usage{}, err
	}
	usage := adapter.Usage{
		PromptTokens:     payload.Usage.PromptTokens,
		CompletionTokens: payload.Usage.CompletionTokens,
		TotalTokens:      payload.Usage.TotalTokens,
	}
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, usage, nil
		}
	}
	return "", usage, errors.New("groq: no choice content")
}

func (g *GroqAdapter) resolve(model string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return g.model
}
