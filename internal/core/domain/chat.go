package domain

import "time"

// ChatQuery is a single chat request. ExplicitIDs, when non-empty, restricts
// relevance selection to that subset of the owner's documents.
type ChatQuery struct {
	OwnerID        string
	ConversationID string
	Message        string
	ExplicitIDs    []string
}

// ChatResult is the synthesized answer. Citations is the subset of
// DocumentsUsed whose names appear verbatim (case-insensitively) in the
// answer text. DegradedSearch is set when relevance selection fell back to
// the full candidate set instead of filtering.
type ChatResult struct {
	Response       string   `json:"response"`
	Citations      []string `json:"citations"`
	DocumentsUsed  []string `json:"documents_used"`
	ConversationID string   `json:"conversation_id,omitempty"`
	DegradedSearch bool     `json:"degraded_search"`
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

const DefaultConversationTitle = "Untitled Conversation"

type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	OwnerID        string      `json:"-"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Citations      []string    `json:"citations,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
