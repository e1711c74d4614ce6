package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
)

// TitleSummarizer labels a conversation from its first exchange. Never
// fails: oracle errors fall back to the default title.
type TitleSummarizer struct {
	oracle ports.Oracle
}

func NewTitleSummarizer(oracle ports.Oracle) *TitleSummarizer {
	return &TitleSummarizer{oracle: oracle}
}

func (t *TitleSummarizer) SummarizeTitle(ctx context.Context, userMessage, assistantMessage string) string {
	reply, err := t.oracle.GenerateText(ctx, buildTitlePrompt(userMessage, assistantMessage))
	if err != nil {
		slog.Warn("title_summarization_failed", "error", err)
		return domain.DefaultConversationTitle
	}

	title, _, _ := strings.Cut(reply, "\n")
	title = stripSurroundingQuotes(strings.TrimSpace(title))
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.DefaultConversationTitle
	}
	return title
}

// stripSurroundingQuotes removes a single layer of matching quote
// characters.
func stripSurroundingQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
