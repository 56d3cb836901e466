package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/pkg/validator"
	"github.com/futig/fundqa-bot/internal/telegram/bot"
	"github.com/futig/fundqa-bot/internal/telegram/handlers"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const fileDownloadTimeout = time.Minute

type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot authorizes the token against the Bot API and wires the chat handler.
// transcriber may be nil, in which case voice messages are declined.
func NewBot(
	cfg *config.TelegramConfig,
	chatUC handlers.ChatUsecase,
	transcriber handlers.Transcriber,
	maxVoiceDuration int,
	validator *validator.Validator,
	logger *zap.Logger,
) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	var opts []handlers.Option
	if transcriber != nil {
		files := newFileDownloader(api.GetFileDirectURL, fileDownloadTimeout)
		opts = append(opts, handlers.WithVoice(transcriber, files, maxVoiceDuration))
		logger.Info("voice questions enabled", zap.Int("max_duration_sec", maxVoiceDuration))
	}

	handler := handlers.NewChatHandler(api, chatUC, validator, logger, opts...)

	return bot.New(api, cfg, handler, logger), nil
}
