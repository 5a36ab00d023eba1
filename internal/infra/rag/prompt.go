package rag

import (
	"fmt"
	"regexp"
	"strings"

	"docchat-service/internal/domain/model"
	"docchat-service/internal/domain/ports/adapter"
)

// systemPrompt steers the model toward grounded, plain-text answers. The
// markdown ban is enforced again after generation by CleanAnswer.
const systemPrompt = `You are a helpful document assistant. You help users understand and explore the content of their uploaded document (PDF, DOCX, or DOC).

Analyze the question carefully before responding:

- If the question is a greeting or casual chit-chat unrelated to the document, respond briefly and warmly: "Hi! Ready to dive into your document - what's your question?" Then stop.

- If the question is completely unrelated to the document, respond politely once: "I specialize in your uploaded document. What would you like to know about it?"

- If the question is about the document but no relevant context is found, say directly: "Based on the document, I couldn't find info on that. Try rephrasing or ask about a specific section."

- For any document-related question: start your response immediately with the key answer. Use ONLY the provided context, never outside knowledge. Be concise, factual, and structured.

Rules:
- NEVER use **, *, #, backticks, _, ~, >, or any markdown.
- Use simple bullet points with "•" only for lists.
- Be clear, direct, and professional. Keep answers under 250 words.
- Always base answers on the context; if unclear, ask for clarification briefly.`

// BuildMessages assembles the chat payload: system rules with the retrieved
// context block, recent history as alternating turns, then the question.
func BuildMessages(results []model.Retrieved, history []model.HistoryEntry, question string) []adapter.Message {
	msgs := make([]adapter.Message, 0, len(history)*2+2)
	msgs = append(msgs, adapter.Message{
		Role:    "system",
		Content: systemPrompt + "\n\nContext:\n" + FormatContext(results),
	})
	for _, h := range history {
		msgs = append(msgs, adapter.Message{Role: "user", Content: h.Question})
		msgs = append(msgs, adapter.Message{Role: "assistant", Content: h.Answer})
	}
	msgs = append(msgs, adapter.Message{Role: "user", Content: question})
	return msgs
}

// FormatContext renders retrieved chunks as bullet lines with page numbers.
func FormatContext(results []model.Retrieved) string {
	if len(results) == 0 {
		return "No relevant context found in the document."
	}
	var b strings.Builder
	for _, r := range results {
		text := CleanAnswer(strings.TrimSpace(r.Chunk.Text))
		fmt.Fprintf(&b, "• Page %d: %s\n", r.Chunk.Page, text)
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	markdownRe = regexp.MustCompile("\\*\\*|\\*|#|`|_|~|>|\\|")
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// CleanAnswer strips markdown decoration and collapses blank-line runs.
func CleanAnswer(text string) string {
	text = markdownRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
