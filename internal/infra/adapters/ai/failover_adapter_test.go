package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-service/internal/domain"
	"docchat-service/internal/domain/ports/adapter"
)

type stubLLM struct {
	name  string
	reply string
	err   error
	calls int
}

func (s *stubLLM) Name() string { return s.name }

func (s *stubLLM) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return 42, nil
}

func (s *stubLLM) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := s.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (s *stubLLM) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	s.calls++
	if s.err != nil {
		return "", adapter.Usage{}, s.err
	}
	return s.reply, adapter.Usage{TotalTokens: 10}, nil
}

func TestFailoverUsesPrimaryFirst(t *testing.T) {
	primary := &stubLLM{name: "a", reply: "from a"}
	backup := &stubLLM{name: "b", reply: "from b"}
	log := zerolog.Nop()
	f, err := NewFailoverLLM(&log, primary, backup)
	require.NoError(t, err)

	reply, err := f.Chat(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "from a", reply)
	assert.Zero(t, backup.calls)
}

func TestFailoverFallsToNextProvider(t *testing.T) {
	primary := &stubLLM{name: "a", err: errors.New("down")}
	backup := &stubLLM{name: "b", reply: "from b"}
	log := zerolog.Nop()
	f, err := NewFailoverLLM(&log, primary, backup)
	require.NoError(t, err)

	reply, err := f.Chat(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "from b", reply)
	assert.Equal(t, 1, primary.calls)
}

func TestFailoverSurfacesLastError(t *testing.T) {
	primary := &stubLLM{name: "a", err: errors.New("down")}
	backup := &stubLLM{name: "b", err: fmt.Errorf("slow down: %w", domain.ErrRateLimited)}
	log := zerolog.Nop()
	f, err := NewFailoverLLM(&log, primary, backup)
	require.NoError(t, err)

	_, err = f.Chat(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestFailoverEmptyChainRejected(t *testing.T) {
	log := zerolog.Nop()
	_, err := NewFailoverLLM(&log)
	assert.Error(t, err)
}

func TestFailoverName(t *testing.T) {
	log := zerolog.Nop()
	f, err := NewFailoverLLM(&log, &stubLLM{name: "groq"}, &stubLLM{name: "noop"})
	require.NoError(t, err)
	assert.Equal(t, "groq>noop", f.Name())
}
