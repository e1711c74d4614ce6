package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
)

func TestSynthesizeBuildsAnswerWithCitations(t *testing.T) {
	oracle := &oracleFake{reply: "According to Safety Procedure A, leave via the east stairwell."}
	answer, err := NewSynthesizer(oracle).Synthesize(context.Background(), "fire evacuation", testDocs())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(answer.DocumentsUsed) != 2 {
		t.Fatalf("expected all passed documents in DocumentsUsed, got %v", answer.DocumentsUsed)
	}
	if len(answer.Citations) != 1 || answer.Citations[0] != "Safety Procedure A" {
		t.Fatalf("expected single citation Safety Procedure A, got %v", answer.Citations)
	}
	if !strings.Contains(oracle.lastPrompt, "=== DOCUMENT: Onboarding Guide ===") {
		t.Fatalf("expected full document blocks in the prompt")
	}
	if !strings.Contains(oracle.lastPrompt, "first week checklist") {
		t.Fatalf("expected full document content in the prompt")
	}
}

func TestSynthesizeCitationsAreSubsetOfDocumentsUsed(t *testing.T) {
	oracle := &oracleFake{reply: "safety procedure a and onboarding guide both apply."}
	answer, err := NewSynthesizer(oracle).Synthesize(context.Background(), "q", testDocs())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	used := make(map[string]struct{}, len(answer.DocumentsUsed))
	for _, name := range answer.DocumentsUsed {
		used[name] = struct{}{}
	}
	for _, citation := range answer.Citations {
		if _, ok := used[citation]; !ok {
			t.Fatalf("citation %q not in documents_used %v", citation, answer.DocumentsUsed)
		}
	}
	if len(answer.Citations) != 2 {
		t.Fatalf("expected case-insensitive citation detection, got %v", answer.Citations)
	}
}

func TestSynthesizeCitationsPreserveInputOrder(t *testing.T) {
	oracle := &oracleFake{reply: "Onboarding Guide first, then Safety Procedure A."}
	answer, err := NewSynthesizer(oracle).Synthesize(context.Background(), "q", testDocs())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if answer.Citations[0] != "Safety Procedure A" || answer.Citations[1] != "Onboarding Guide" {
		t.Fatalf("expected input order preserved, got %v", answer.Citations)
	}
}

func TestSynthesizeEmptyDocumentSet(t *testing.T) {
	oracle := &oracleFake{reply: "Please upload SOP documents first."}
	answer, err := NewSynthesizer(oracle).Synthesize(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(answer.Citations) != 0 || len(answer.DocumentsUsed) != 0 {
		t.Fatalf("expected empty citations and usage, got %v / %v", answer.Citations, answer.DocumentsUsed)
	}
	if strings.Contains(oracle.lastPrompt, "=== DOCUMENT:") {
		t.Fatalf("empty-set prompt must not embed document content")
	}
	if oracle.calls != 1 {
		t.Fatalf("expected exactly one oracle call, got %d", oracle.calls)
	}
}

func TestSynthesizeOracleErrorPropagates(t *testing.T) {
	oracle := &oracleFake{err: errors.New("oracle down")}
	_, err := NewSynthesizer(oracle).Synthesize(context.Background(), "q", testDocs())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}
