package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-service/internal/domain/model"
)

func TestCleanAnswerStripsMarkdown(t *testing.T) {
	cases := []struct{ in, want string }{
		{"**bold** and *italic*", "bold and italic"},
		{"# Heading\ntext", "Heading\ntext"},
		{"`code` and _under_ and ~strike~", "code and under and strike"},
		{"> quoted | piped", "quoted  piped"},
		{"a\n\n\n\n\nb", "a\n\nb"},
		{"  plain already  ", "plain already"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CleanAnswer(c.in), "input %q", c.in)
	}
}

func TestFormatContextEmpty(t *testing.T) {
	assert.Equal(t, "No relevant context found in the document.", FormatContext(nil))
}

func TestFormatContextBulletsWithPages(t *testing.T) {
	got := FormatContext([]model.Retrieved{
		{Chunk: model.Chunk{Text: "first **snippet**", Page: 2}, Score: 0.9},
		{Chunk: model.Chunk{Text: "second snippet", Page: 5}, Score: 0.5},
	})
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "• Page 2: first snippet", lines[0])
	assert.Equal(t, "• Page 5: second snippet", lines[1])
}

func TestBuildMessagesShape(t *testing.T) {
	msgs := BuildMessages(
		[]model.Retrieved{{Chunk: model.Chunk{Text: "the sky is blue", Page: 1}}},
		[]model.HistoryEntry{
			{Question: "q1", Answer: "a1"},
			{Question: "q2", Answer: "a2"},
		},
		"what color is the sky?",
	)
	require.Len(t, msgs, 6)

	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Context:")
	assert.Contains(t, msgs[0].Content, "the sky is blue")

	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "q1", msgs[1].Content)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "a1", msgs[2].Content)
	assert.Equal(t, "user", msgs[3].Role)
	assert.Equal(t, "assistant", msgs[4].Role)

	assert.Equal(t, "user", msgs[5].Role)
	assert.Equal(t, "what color is the sky?", msgs[5].Content)
}

func TestBuildMessagesNoHistory(t *testing.T) {
	msgs := BuildMessages(nil, nil, "hello")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "No relevant context")
	assert.Equal(t, "hello", msgs[1].Content)
}
