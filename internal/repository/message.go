package repository

import (
	"context"

	"github.com/futig/fundqa-bot/internal/entity"
)

// MessageRepository persists chat history per conversation, oldest message first.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID string, role entity.MessageRole, content string) (*entity.ChatMessage, error)
	ListMessages(ctx context.Context, conversationID string) ([]*entity.ChatMessage, error)
	DeleteMessages(ctx context.Context, conversationID string) error
}

var (
	_ MessageRepository = &MessagePostgres{}
	_ MessageRepository = &MessageMemory{}
)
