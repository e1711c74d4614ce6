package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
	"github.com/pkiselev/sop-assistant/internal/core/ports"
	"github.com/pkiselev/sop-assistant/internal/core/retrieval"
)

// RelevanceSelector narrows the owner's documents to the ones relevant to a
// query. It never fails: degraded outcomes carry the full candidate set.
type RelevanceSelector interface {
	SelectRelevant(ctx context.Context, query string, docs []domain.Document, explicitIDs []string) retrieval.Selection
}

// AnswerSynthesizer produces the grounded answer over the selected
// documents.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, query string, selected []domain.Document) (*retrieval.Answer, error)
}

// TitleSummarizer names a conversation from its first exchange. It never
// fails: fallbacks return a usable title.
type TitleSummarizer interface {
	SummarizeTitle(ctx context.Context, userMessage, assistantMessage string) string
}

// ChatUseCase answers a question over the owner's documents and persists the
// exchange into a conversation.
type ChatUseCase struct {
	repo          ports.DocumentRepository
	conversations ports.ConversationStore
	selector      RelevanceSelector
	synthesizer   AnswerSynthesizer
	titler        TitleSummarizer
}

func NewChatUseCase(
	repo ports.DocumentRepository,
	conversations ports.ConversationStore,
	selector RelevanceSelector,
	synthesizer AnswerSynthesizer,
	titler TitleSummarizer,
) *ChatUseCase {
	return &ChatUseCase{
		repo:          repo,
		conversations: conversations,
		selector:      selector,
		synthesizer:   synthesizer,
		titler:        titler,
	}
}

func (uc *ChatUseCase) Chat(ctx context.Context, query domain.ChatQuery) (*domain.ChatResult, error) {
	message := strings.TrimSpace(query.Message)
	if message == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("message is required"))
	}

	docs, err := uc.repo.ListByOwner(ctx, query.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load owner documents: %w", err)
	}

	selection := uc.selector.SelectRelevant(ctx, message, docs, query.ExplicitIDs)

	answer, err := uc.synthesizer.Synthesize(ctx, message, selection.Documents)
	if err != nil {
		return nil, err
	}

	conversationID := query.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	conv, err := uc.conversations.EnsureConversation(ctx, query.OwnerID, conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		OwnerID:        query.OwnerID,
		Role:           domain.RoleUser,
		Content:        message,
		CreatedAt:      now,
	}
	if err := uc.conversations.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	assistantMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		OwnerID:        query.OwnerID,
		Role:           domain.RoleAssistant,
		Content:        answer.Text,
		Citations:      answer.Citations,
		CreatedAt:      now.Add(time.Millisecond),
	}
	if err := uc.conversations.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	if conv.Title == domain.DefaultConversationTitle {
		uc.maybeTitle(ctx, query.OwnerID, conversationID, message, answer.Text)
	}

	return &domain.ChatResult{
		Response:       answer.Text,
		Citations:      answer.Citations,
		DocumentsUsed:  answer.DocumentsUsed,
		ConversationID: conversationID,
		DegradedSearch: selection.Degraded,
	}, nil
}

// maybeTitle runs the title summarizer best-effort after the first exchange.
// A failed SetTitle leaves the default title in place.
func (uc *ChatUseCase) maybeTitle(ctx context.Context, ownerID, conversationID, userMessage, assistantMessage string) {
	title := uc.titler.SummarizeTitle(ctx, userMessage, assistantMessage)
	if title == "" || title == domain.DefaultConversationTitle {
		return
	}
	if err := uc.conversations.SetTitle(ctx, ownerID, conversationID, title); err != nil {
		slog.Warn("set_conversation_title_failed", "conversation_id", conversationID, "error", err)
	}
}

func (uc *ChatUseCase) ListConversations(ctx context.Context, ownerID string) ([]domain.Conversation, error) {
	convs, err := uc.conversations.ListConversations(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, ownerID, conversationID string) ([]domain.Message, error) {
	// Scope check first so a foreign conversation reads as not found rather
	// than as an empty history.
	if _, err := uc.conversations.GetConversation(ctx, ownerID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := uc.conversations.ListMessages(ctx, ownerID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}
