package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const msgAccessDenied = "🔒 This bot is private."

// AllowlistMiddleware drops updates from users outside the list.
// An empty list lets everyone through.
type AllowlistMiddleware struct {
	allowed map[int64]struct{}
	logger  *zap.Logger
	bot     sender
}

func NewAllowlistMiddleware(userIDs []int64, logger *zap.Logger, bot sender) *AllowlistMiddleware {
	allowed := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}
	return &AllowlistMiddleware{
		allowed: allowed,
		logger:  logger,
		bot:     bot,
	}
}

func (m *AllowlistMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	if len(m.allowed) == 0 {
		next(update)
		return
	}

	userID, chatID, ok := updateIDs(update)
	if !ok {
		return
	}
	if _, allowed := m.allowed[userID]; allowed {
		next(update)
		return
	}

	m.logger.Warn("telegram user not in allow-list",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)
	if err := notify(m.bot, chatID, msgAccessDenied); err != nil {
		m.logger.Error("failed to send access denied message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
