package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/retrieval"
)

func newChatUseCase(repo *docRepoFake, convs *convStoreFake, sel *selectorFake, synth *synthFake, titler *titlerFake) *ChatUseCase {
	return NewChatUseCase(repo, convs, sel, synth, titler)
}

func ownerDocs() []domain.Document {
	return []domain.Document{
		{ID: "doc-1", OwnerID: "user-1", Name: "Safety Procedure A", Content: "wear gloves"},
		{ID: "doc-2", OwnerID: "user-1", Name: "Onboarding Guide", Content: "welcome"},
	}
}

func TestChatSuccess(t *testing.T) {
	repo := &docRepoFake{docs: ownerDocs()}
	convs := &convStoreFake{}
	sel := &selectorFake{}
	synth := &synthFake{answer: &retrieval.Answer{
		Text:          "Per Safety Procedure A, wear gloves.",
		Citations:     []string{"Safety Procedure A"},
		DocumentsUsed: []string{"Safety Procedure A", "Onboarding Guide"},
	}}
	titler := &titlerFake{title: "Glove Policy"}
	uc := newChatUseCase(repo, convs, sel, synth, titler)

	res, err := uc.Chat(context.Background(), domain.ChatQuery{OwnerID: "user-1", Message: "what should I wear?"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if res.Response != "Per Safety Procedure A, wear gloves." {
		t.Fatalf("unexpected response %q", res.Response)
	}
	if len(res.Citations) != 1 || res.Citations[0] != "Safety Procedure A" {
		t.Fatalf("unexpected citations %v", res.Citations)
	}
	if res.ConversationID == "" {
		t.Fatalf("expected generated conversation id")
	}
	if sel.lastQuery != "what should I wear?" || len(sel.lastDocs) != 2 {
		t.Fatalf("expected selector to see owner documents")
	}
	if len(convs.appended) != 2 {
		t.Fatalf("expected two persisted messages, got %d", len(convs.appended))
	}
	if convs.appended[0].Role != domain.RoleUser || convs.appended[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected message roles %v %v", convs.appended[0].Role, convs.appended[1].Role)
	}
	if convs.appended[1].Citations[0] != "Safety Procedure A" {
		t.Fatalf("expected citations on assistant message")
	}
	if convs.titleSet != "Glove Policy" {
		t.Fatalf("expected summarized title, got %q", convs.titleSet)
	}
}

func TestChatBlankMessageRejected(t *testing.T) {
	repo := &docRepoFake{docs: ownerDocs()}
	uc := newChatUseCase(repo, &convStoreFake{}, &selectorFake{}, &synthFake{}, &titlerFake{})

	_, err := uc.Chat(context.Background(), domain.ChatQuery{OwnerID: "user-1", Message: "   "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChatSynthesisErrorPropagates(t *testing.T) {
	repo := &docRepoFake{docs: ownerDocs()}
	synth := &synthFake{err: domain.WrapError(domain.ErrSynthesis, "synthesize answer", errors.New("oracle down"))}
	convs := &convStoreFake{}
	uc := newChatUseCase(repo, convs, &selectorFake{}, synth, &titlerFake{})

	_, err := uc.Chat(context.Background(), domain.ChatQuery{OwnerID: "user-1", Message: "hi"})
	if !errors.Is(err, domain.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
	if len(convs.appended) != 0 {
		t.Fatalf("expected no persisted messages on synthesis failure")
	}
}

func TestChatDegradedSelectionSurfaced(t *testing.T) {
	repo := &docRepoFake{docs: ownerDocs()}
	sel := &selectorFake{selection: retrieval.Selection{Documents: ownerDocs(), Degraded: true, Reason: "oracle error"}}
	uc := newChatUseCase(repo, &convStoreFake{}, sel, &synthFake{}, &titlerFake{})

	res, err := uc.Chat(context.Background(), domain.ChatQuery{OwnerID: "user-1", Message: "hi"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !res.DegradedSearch {
		t.Fatalf("expected degraded search flag")
	}
}

func TestChatExplicitIDsForwarded(t *testing.T) {
	repo := &docRepoFake{docs: ownerDocs()}
	sel := &selectorFake{}
	uc := newChatUseCase(repo, &convStoreFake{}, sel, &synthFake{}, &titlerFake{})

	_, err := uc.Chat(context.Background(), domain.ChatQuery{OwnerID: "user-1", Message: "hi", ExplicitIDs: []string{"doc-2"}})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(sel.lastIDs) != 1 || sel.lastIDs[0] != "doc-2" {
		t.Fatalf("expected explicit ids forwarded, got %v", sel.lastIDs)
	}
}

func TestChatTitledConversationSkipsSummarizer(t *testing.T) {
	repo := &docRepoFake{docs: ownerDocs()}
	convs := &convStoreFake{conversation: &domain.Conversation{
		ID: "conv-1", OwnerID: "user-1", Title: "Glove Policy",
	}}
	titler := &titlerFake{title: "Should Not Run"}
	uc := newChatUseCase(repo, convs, &selectorFake{}, &synthFake{}, titler)

	_, err := uc.Chat(context.Background(), domain.ChatQuery{OwnerID: "user-1", ConversationID: "conv-1", Message: "hi"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if titler.calls != 0 {
		t.Fatalf("expected no title summarization for titled conversation")
	}
}

func TestChatDefaultTitleFromSummarizerLeavesTitle(t *testing.T) {
	repo := &docRepoFake{docs: ownerDocs()}
	convs := &convStoreFake{}
	titler := &titlerFake{}
	uc := newChatUseCase(repo, convs, &selectorFake{}, &synthFake{}, titler)

	_, err := uc.Chat(context.Background(), domain.ChatQuery{OwnerID: "user-1", Message: "hi"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if titler.calls != 1 {
		t.Fatalf("expected summarizer call")
	}
	if convs.titleSet != "" {
		t.Fatalf("expected no SetTitle when summarizer falls back, got %q", convs.titleSet)
	}
}

func TestChatForeignConversationNotFound(t *testing.T) {
	repo := &docRepoFake{docs: ownerDocs()}
	convs := &convStoreFake{ensureErr: domain.WrapError(domain.ErrConversationNotFound, "ensure conversation", errors.New("no row"))}
	uc := newChatUseCase(repo, convs, &selectorFake{}, &synthFake{}, &titlerFake{})

	_, err := uc.Chat(context.Background(), domain.ChatQuery{OwnerID: "user-1", ConversationID: "conv-foreign", Message: "hi"})
	if !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestListMessagesForeignConversationNotFound(t *testing.T) {
	convs := &convStoreFake{getErr: domain.WrapError(domain.ErrConversationNotFound, "get conversation", errors.New("no row"))}
	uc := newChatUseCase(&docRepoFake{}, convs, &selectorFake{}, &synthFake{}, &titlerFake{})

	_, err := uc.ListMessages(context.Background(), "user-1", "conv-foreign")
	if !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestListMessagesReturnsHistory(t *testing.T) {
	convs := &convStoreFake{messages: []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "hi"},
		{ID: "m2", Role: domain.RoleAssistant, Content: "hello"},
	}}
	uc := newChatUseCase(&docRepoFake{}, convs, &selectorFake{}, &synthFake{}, &titlerFake{})

	msgs, err := uc.ListMessages(context.Background(), "user-1", "conv-1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m1" {
		t.Fatalf("unexpected history %+v", msgs)
	}
}
