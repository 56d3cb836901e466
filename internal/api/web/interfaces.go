package web

import (
	"context"
	"time"

	"github.com/futig/fundqa-bot/internal/entity"
)

type ChatUsecase interface {
	Ask(ctx context.Context, conversationID, text string) (*entity.ChatExchange, error)
	History(ctx context.Context, conversationID string) ([]*entity.ChatMessage, error)
	ClearHistory(ctx context.Context, conversationID string) error
}

type AuthUsecase interface {
	Login(ctx context.Context, username, password string) (*entity.AuthSession, error)
	Logout(ctx context.Context, cookieValue string)
	CookieValue(session *entity.AuthSession) string
	CookieName() string
	SessionTTL() time.Duration
}
