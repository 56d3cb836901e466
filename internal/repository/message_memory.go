package repository

import (
	"context"
	"sync"
	"time"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MessageMemory keeps history in process. A conversation expires after ttl
// without activity.
type MessageMemory struct {
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

func NewMessageMemory(ttl time.Duration) *MessageMemory {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MessageMemory{
		cache: cache.New(ttl, 10*time.Minute),
		now:   time.Now,
	}
}

func (r *MessageMemory) CreateMessage(
	_ context.Context,
	conversationID string,
	role entity.MessageRole,
	content string,
) (*entity.ChatMessage, error) {
	msg := &entity.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      r.now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	messages := r.load(conversationID)
	r.cache.SetDefault(conversationID, append(messages, msg))

	return msg, nil
}

func (r *MessageMemory) ListMessages(_ context.Context, conversationID string) ([]*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := r.load(conversationID)
	if len(messages) == 0 {
		return []*entity.ChatMessage{}, nil
	}

	// reading counts as activity
	r.cache.SetDefault(conversationID, messages)

	out := make([]*entity.ChatMessage, len(messages))
	copy(out, messages)
	return out, nil
}

func (r *MessageMemory) DeleteMessages(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Delete(conversationID)
	return nil
}

func (r *MessageMemory) load(conversationID string) []*entity.ChatMessage {
	v, ok := r.cache.Get(conversationID)
	if !ok {
		return nil
	}
	return v.([]*entity.ChatMessage)
}
