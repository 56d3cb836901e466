package chat

import (
	"context"

	"github.com/futig/fundqa-bot/internal/entity"
)

type ChatUsecase interface {
	Ask(ctx context.Context, conversationID, text string) (*entity.ChatExchange, error)
	AnswerDetailed(ctx context.Context, userInput string) (*entity.ChatTrace, error)
	History(ctx context.Context, conversationID string) ([]*entity.ChatMessage, error)
	ClearHistory(ctx context.Context, conversationID string) error
	ExportHistory(ctx context.Context, conversationID string, format entity.ResultFormat) (*entity.ExportedFile, error)
	Stream(ctx context.Context, req *entity.StreamRequest) (<-chan entity.StreamChunk, error)
}
