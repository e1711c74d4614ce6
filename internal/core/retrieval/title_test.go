package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
)

func TestSummarizeTitleTakesFirstLineAndStripsQuotes(t *testing.T) {
	cases := []struct {
		reply string
		want  string
	}{
		{"\"Fire Evacuation Basics\"\nSome explanation", "Fire Evacuation Basics"},
		{"'Onboarding Questions'", "Onboarding Questions"},
		{"  Plain Title  ", "Plain Title"},
		{"\"\"Double Quoted\"\"", "\"Double Quoted\""},
	}
	for _, tc := range cases {
		oracle := &oracleFake{reply: tc.reply}
		got := NewTitleSummarizer(oracle).SummarizeTitle(context.Background(), "u", "a")
		if got != tc.want {
			t.Fatalf("SummarizeTitle with reply %q = %q, want %q", tc.reply, got, tc.want)
		}
	}
}

func TestSummarizeTitleFallsBackOnOracleError(t *testing.T) {
	oracle := &oracleFake{err: errors.New("oracle down")}
	got := NewTitleSummarizer(oracle).SummarizeTitle(context.Background(), "u", "a")
	if got != domain.DefaultConversationTitle {
		t.Fatalf("expected fallback title, got %q", got)
	}
}

func TestSummarizeTitleFallsBackOnBlankReply(t *testing.T) {
	oracle := &oracleFake{reply: "  \nmore"}
	got := NewTitleSummarizer(oracle).SummarizeTitle(context.Background(), "u", "a")
	if got != domain.DefaultConversationTitle {
		t.Fatalf("expected fallback title for blank first line, got %q", got)
	}
}
