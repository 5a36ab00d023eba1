package ai

import (
	"github.com/pkoukk/tiktoken-go"

	"docchat-service/internal/domain/ports/adapter"
)

// Per-message framing overhead in the OpenAI chat format.
const tokensPerMessage = 4

// countTokens estimates prompt tokens for OpenAI-compatible providers.
// Unknown models fall back to the cl100k_base encoding, which is close
// enough for budget trimming.
func countTokens(model string, messages []adapter.Message) (int, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
	}
	total := 2
	for _, m := range messages {
		total += tokensPerMessage
		total += len(enc.Encode(m.Content, nil, nil))
		total += len(enc.Encode(m.Role, nil, nil))
	}
	return total, nil
}
