package retrieval

import (
	"context"
	"strings"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
)

// Answer is a synthesized reply with its citation bookkeeping.
// DocumentsUsed always lists every document passed in; Citations is the
// subset whose names textually appear in the answer.
type Answer struct {
	Text          string
	Citations     []string
	DocumentsUsed []string
}

// Synthesizer produces the final answer from the selected documents in a
// single oracle call. Unlike selection, an oracle failure here is
// propagated: there is no meaningful fallback for "no answer".
type Synthesizer struct {
	oracle ports.Oracle
}

func NewSynthesizer(oracle ports.Oracle) *Synthesizer {
	return &Synthesizer{oracle: oracle}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, selected []domain.Document) (*Answer, error) {
	if len(selected) == 0 {
		text, err := s.oracle.GenerateText(ctx, buildNoDocumentsPrompt(query))
		if err != nil {
			return nil, domain.WrapError(domain.ErrSynthesis, "synthesize without documents", err)
		}
		return &Answer{Text: text, Citations: []string{}, DocumentsUsed: []string{}}, nil
	}

	text, err := s.oracle.GenerateText(ctx, buildSynthesisPrompt(query, selected))
	if err != nil {
		return nil, domain.WrapError(domain.ErrSynthesis, "synthesize answer", err)
	}

	used := make([]string, 0, len(selected))
	for _, doc := range selected {
		used = append(used, doc.Name)
	}

	return &Answer{
		Text:          text,
		Citations:     detectCitations(text, selected),
		DocumentsUsed: used,
	}, nil
}

// detectCitations is a textual heuristic: a document is cited when its name
// appears case-insensitively anywhere in the answer. A document used in
// substance whose name never appears verbatim is silently omitted.
func detectCitations(answer string, docs []domain.Document) []string {
	lowered := strings.ToLower(answer)
	citations := make([]string, 0, len(docs))
	for _, doc := range docs {
		if strings.Contains(lowered, strings.ToLower(doc.Name)) {
			citations = append(citations, doc.Name)
		}
	}
	return citations
}
