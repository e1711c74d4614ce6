package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pkiselev/sop-assistant/internal/core/domain"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) EnsureConversation(ctx context.Context, ownerID, conversationID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversations (id, owner_id, title, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (id) DO NOTHING
`, conversationID, ownerID, domain.DefaultConversationTitle, now)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation insert: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, title, created_at, updated_at
FROM conversations
WHERE id = $1 AND owner_id = $2
`, conversationID, ownerID)

	var conv domain.Conversation
	if err := row.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConversationNotFound, "ensure conversation", err)
		}
		return nil, fmt.Errorf("ensure conversation select: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) GetConversation(ctx context.Context, ownerID, conversationID string) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, title, created_at, updated_at
FROM conversations
WHERE id = $1 AND owner_id = $2
`, conversationID, ownerID)

	var conv domain.Conversation
	if err := row.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConversationNotFound, "get conversation", err)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) SetTitle(ctx context.Context, ownerID, conversationID, title string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE conversations
SET title = $3, updated_at = $4
WHERE id = $1 AND owner_id = $2
`, conversationID, ownerID, title, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set conversation title: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrConversationNotFound, "set conversation title", sql.ErrNoRows)
	}
	return nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, message domain.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	citations := message.Citations
	if citations == nil {
		citations = []string{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO messages (id, conversation_id, owner_id, role, content, citations, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, message.ID, message.ConversationID, message.OwnerID, string(message.Role), message.Content, citationsJSON, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
UPDATE conversations SET updated_at = $2 WHERE id = $1
`, message.ConversationID, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListConversations(ctx context.Context, ownerID string) ([]domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, owner_id, title, created_at, updated_at
FROM conversations
WHERE owner_id = $1
ORDER BY updated_at DESC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Conversation, 0, 16)
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, ownerID, conversationID string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, conversation_id, owner_id, role, content, citations, created_at
FROM messages
WHERE conversation_id = $1 AND owner_id = $2
ORDER BY created_at
`, conversationID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0, 32)
	for rows.Next() {
		var msg domain.Message
		var role string
		var citationsRaw []byte
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.OwnerID, &role, &msg.Content, &citationsRaw, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal(citationsRaw, &msg.Citations); err != nil {
			return nil, fmt.Errorf("unmarshal citations: %w", err)
		}
		msg.Role = domain.MessageRole(role)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}
