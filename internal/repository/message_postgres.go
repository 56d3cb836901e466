package repository

import (
	"context"
	"fmt"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createMessageQuery = `
INSERT INTO chat_messages (id, conversation_id, role, content)
VALUES ($1, $2, $3, $4)
RETURNING created_at`

	listMessagesQuery = `
SELECT id, conversation_id, role, content, created_at
FROM chat_messages
WHERE conversation_id = $1
ORDER BY seq`

	deleteMessagesQuery = `DELETE FROM chat_messages WHERE conversation_id = $1`
)

// MessagePostgres implements MessageRepository using PostgreSQL
type MessagePostgres struct {
	db *pgxpool.Pool
}

func NewMessagePostgres(db *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{db: db}
}

func (r *MessagePostgres) CreateMessage(
	ctx context.Context,
	conversationID string,
	role entity.MessageRole,
	content string,
) (*entity.ChatMessage, error) {
	msg := &entity.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}

	if err := r.db.QueryRow(ctx, createMessageQuery, msg.ID, conversationID, string(role), content).
		Scan(&msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}

	return msg, nil
}

func (r *MessagePostgres) ListMessages(ctx context.Context, conversationID string) ([]*entity.ChatMessage, error) {
	rows, err := r.db.Query(ctx, listMessagesQuery, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.ChatMessage, error) {
		var (
			msg  entity.ChatMessage
			id   uuid.UUID
			role string
		)
		if err := row.Scan(&id, &msg.ConversationID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.ID = id.String()
		msg.Role = entity.MessageRole(role)
		return &msg, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan chat messages: %w", err)
	}

	return messages, nil
}

func (r *MessagePostgres) DeleteMessages(ctx context.Context, conversationID string) error {
	if _, err := r.db.Exec(ctx, deleteMessagesQuery, conversationID); err != nil {
		return fmt.Errorf("delete chat messages: %w", err)
	}
	return nil
}
