package ports

import (
	"context"
	"io"
	"time"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
)

// DocumentRepository persists owner-scoped document metadata and extracted
// text. All reads and deletes are scoped by owner; foreign ids behave as
// not found.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error)
	// GetAny is the owner-agnostic read used by the extraction reconciler,
	// which only knows document ids from queue events.
	GetAny(ctx context.Context, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)
	SetContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, ownerID, id string) error
}

// BlobStore stores raw uploaded files. Put must not overwrite an existing
// key.
type BlobStore interface {
	Put(ctx context.Context, key, mimeType string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Oracle is the external text/multimodal completion service. Replies are
// free-form text; any structure is extracted by the caller.
type Oracle interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithAttachment(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}

// TextExtractor obtains plain text from a raw file payload.
type TextExtractor interface {
	Extract(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

// ConversationStore persists conversations and their messages.
type ConversationStore interface {
	EnsureConversation(ctx context.Context, ownerID, conversationID string) (*domain.Conversation, error)
	GetConversation(ctx context.Context, ownerID, conversationID string) (*domain.Conversation, error)
	SetTitle(ctx context.Context, ownerID, conversationID, title string) error
	AppendMessage(ctx context.Context, message domain.Message) error
	ListConversations(ctx context.Context, ownerID string) ([]domain.Conversation, error)
	ListMessages(ctx context.Context, ownerID, conversationID string) ([]domain.Message, error)
}

// EventQueue publishes/consumes document upload events for the extraction
// reconciler. The queue stamps publish time so consumers can observe queue
// lag; a zero publishedAt means the event carried no timestamp.
type EventQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(ctx context.Context, documentID string, publishedAt time.Time) error) error
}
