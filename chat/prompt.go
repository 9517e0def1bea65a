package chat

import (
	"strings"

	"github.com/fabfab/shop-agent/llm"
	"github.com/fabfab/shop-agent/retrieval"
)

func systemPrompt() string {
	return "You are a helpful e-commerce customer assistant. Answer using only the transaction context provided. " +
		"If the context does not contain the information needed, say so explicitly instead of guessing. " +
		"Format currency amounts with a $ prefix. Be concise."
}

func formatUserPrompt(question string, hits []retrieval.Hit) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for _, hit := range hits {
		sb.WriteString(hit.Chunk)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

// historyMessages converts the most recent turns into alternating
// user/assistant messages. Older turns are dropped on purpose: the window
// bounds prompt size at the cost of long-range memory.
func historyMessages(turns []Turn, window int) []llm.Message {
	if window <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	messages := make([]llm.Message, 0, len(turns)*2)
	for _, turn := range turns {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.User},
			llm.Message{Role: llm.RoleAssistant, Content: turn.Bot},
		)
	}
	return messages
}
