package chat

import (
	"context"
	"fmt"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Ask stores the question, answers it and stores the answer.
func (uc *ChatUsecase) Ask(ctx context.Context, conversationID, text string) (*entity.ChatExchange, error) {
	ctx = logger.AddFields(ctx, zap.String("conversation_id", conversationID))

	question, err := uc.messages.CreateMessage(ctx, conversationID, entity.RoleUser, text)
	if err != nil {
		return nil, fmt.Errorf("save question: %w", err)
	}

	answer, err := uc.messages.CreateMessage(ctx, conversationID, entity.RoleAssistant, uc.Answer(ctx, text))
	if err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	return &entity.ChatExchange{Question: question, Answer: answer}, nil
}

func (uc *ChatUsecase) History(ctx context.Context, conversationID string) ([]*entity.ChatMessage, error) {
	messages, err := uc.messages.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return messages, nil
}

func (uc *ChatUsecase) ClearHistory(ctx context.Context, conversationID string) error {
	if err := uc.messages.DeleteMessages(ctx, conversationID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	ctxzap.Info(ctx, "history cleared", zap.String("conversation_id", conversationID))

	return nil
}

func (uc *ChatUsecase) ExportHistory(ctx context.Context, conversationID string, format entity.ResultFormat) (*entity.ExportedFile, error) {
	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, err
	}

	messages, err := uc.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	data, err := f.Format(messages)
	if err != nil {
		return nil, fmt.Errorf("format history as %s: %w", format, err)
	}

	return &entity.ExportedFile{
		Data:        data,
		ContentType: f.ContentType(),
		Filename:    "chat-history" + f.FileExtension(),
	}, nil
}
