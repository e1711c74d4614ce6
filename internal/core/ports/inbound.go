package ports

import (
	"context"
	"io"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
)

// DocumentService is the inbound contract for document CRUD orchestration.
type DocumentService interface {
	Upload(ctx context.Context, ownerID, displayName, filename, mimeType string, size int64, body io.Reader) (*domain.Document, error)
	List(ctx context.Context, ownerID string) ([]domain.Document, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ChatService is the inbound contract for chat over the owner's documents.
type ChatService interface {
	Chat(ctx context.Context, query domain.ChatQuery) (*domain.ChatResult, error)
	ListConversations(ctx context.Context, ownerID string) ([]domain.Conversation, error)
	ListMessages(ctx context.Context, ownerID, conversationID string) ([]domain.Message, error)
}

// DocumentReconciler re-runs content extraction for documents whose
// upload-time extraction yielded no text.
type DocumentReconciler interface {
	ReconcileByID(ctx context.Context, documentID string) error
}
