package handlers

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	pkgretry "github.com/futig/fundqa-bot/internal/pkg/retry"
	"go.uber.org/zap"
)

func defaultSendRetry() pkgretry.RetryConfig {
	return pkgretry.RetryConfig{
		Attempts: 3,
		Delay:    500 * time.Millisecond,
		MaxDelay: 3 * time.Second,
	}
}

// sendCriticalMessage retries delivery of messages the user must not miss, such as answers.
func (h *ChatHandler) sendCriticalMessage(ctx context.Context, chatID int64, text string) error {
	opts := append(h.sendRetry.ToRetryOptions(ctx),
		retry.OnRetry(func(n uint, err error) {
			h.logger.Warn("failed to send message, retrying",
				zap.Error(err),
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", h.sendRetry.Attempts),
				zap.Int64("chat_id", chatID),
			)
		}),
	)

	err := retry.Do(func() error {
		return h.sender.Send(chatID, text)
	}, opts...)
	if err != nil {
		h.logger.Error("failed to send message after all retries",
			zap.Error(err),
			zap.Uint("max_attempts", h.sendRetry.Attempts),
			zap.Int64("chat_id", chatID),
		)
	}
	return err
}
