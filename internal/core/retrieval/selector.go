package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
)

// Selection is the outcome of relevance selection. Degraded is set whenever
// the selector fell back to the unfiltered candidate set instead of a
// ranked subset, so callers can tell "filtered" from "gave up".
type Selection struct {
	Documents []domain.Document
	Degraded  bool
	Reason    string
}

// Selector narrows a candidate document set to the ones relevant to a query
// by asking the oracle and parsing its free-text reply. Selection is
// advisory: every failure path degrades to the unfiltered candidate set,
// never to an empty one.
type Selector struct {
	oracle ports.Oracle
}

func NewSelector(oracle ports.Oracle) *Selector {
	return &Selector{oracle: oracle}
}

func (s *Selector) SelectRelevant(ctx context.Context, query string, docs []domain.Document, explicitIDs []string) Selection {
	if len(docs) == 0 {
		return Selection{Documents: nil}
	}

	candidates := filterByIDs(docs, explicitIDs)
	if len(candidates) == 0 {
		candidates = docs
	}

	reply, err := s.oracle.GenerateText(ctx, buildSelectionPrompt(query, candidates))
	if err != nil {
		slog.Warn("relevance_selection_degraded", "reason", "oracle_error", "error", err)
		return Selection{Documents: candidates, Degraded: true, Reason: "oracle error"}
	}

	names := parseNameList(reply)
	if len(names) == 0 || containsNoneSentinel(names) {
		return Selection{Documents: candidates, Degraded: true, Reason: "no relevant documents reported"}
	}

	matched := matchByName(candidates, names)
	if len(matched) == 0 {
		slog.Debug("relevance_selection_degraded", "reason", "no_name_match", "reply_tokens", len(names))
		return Selection{Documents: candidates, Degraded: true, Reason: "reply matched no document names"}
	}
	return Selection{Documents: matched}
}

func filterByIDs(docs []domain.Document, ids []string) []domain.Document {
	if len(ids) == 0 {
		return docs
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]domain.Document, 0, len(ids))
	for _, doc := range docs {
		if _, ok := wanted[doc.ID]; ok {
			out = append(out, doc)
		}
	}
	return out
}

// parseNameList turns the oracle's comma-separated reply into lower-cased
// trimmed tokens. Empty tokens are dropped.
func parseNameList(reply string) []string {
	parts := strings.Split(strings.ToLower(reply), ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

func containsNoneSentinel(tokens []string) bool {
	for _, token := range tokens {
		if token == "none" {
			return true
		}
	}
	return false
}

// matchByName keeps candidates whose lower-cased name and a reply token
// contain each other in either direction, preserving candidate order.
// Bidirectional containment can over-match documents sharing common words;
// tightening it means touching only this function.
func matchByName(candidates []domain.Document, tokens []string) []domain.Document {
	matched := make([]domain.Document, 0, len(candidates))
	for _, doc := range candidates {
		name := strings.ToLower(doc.Name)
		for _, token := range tokens {
			if strings.Contains(name, token) || strings.Contains(token, name) {
				matched = append(matched, doc)
				break
			}
		}
	}
	return matched
}
