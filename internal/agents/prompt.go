package agents

import (
	"strings"
)

// contextBlock renders conversation history and file context the way every
// responder prompt embeds them.
func contextBlock(in Input) string {
	var b strings.Builder
	if in.ConversationHistory != "" {
		b.WriteString("\n\n過去の会話:\n")
		b.WriteString(in.ConversationHistory)
	}
	if in.FileContext != "" {
		b.WriteString("\n\n関連ファイル:\n")
		b.WriteString(in.FileContext)
	}
	return b.String()
}
