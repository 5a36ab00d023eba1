package embed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"docchat-service/internal/domain/ports/adapter"
	"docchat-service/internal/infra/metrics"
)

// Compile-time check
var _ adapter.EmbeddingProvider = (*GeminiEmbedder)(nil)

// GeminiEmbedder embeds texts using the official SDK.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "text-embedding-004"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiEmbedder{client: c, model: model}, nil
}

func (g *GeminiEmbedder) Name() string { return "gemini" }

func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: t}},
		})
	}

	start := time.Now()
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, nil)
	metrics.ObserveEmbedCall("gemini", len(texts), int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", got, len(texts))
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}
