package handlers

import (
	"context"

	"github.com/futig/fundqa-bot/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatUsecase is the part of the chat usecase the bot talks to.
type ChatUsecase interface {
	Ask(ctx context.Context, conversationID, text string) (*entity.ChatExchange, error)
	ClearHistory(ctx context.Context, conversationID string) error
}

// Transcriber turns a voice message into question text.
type Transcriber interface {
	TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error)
}

// FileDownloader fetches a file the user sent to the bot.
type FileDownloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
