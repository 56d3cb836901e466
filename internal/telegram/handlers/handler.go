package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/futig/fundqa-bot/internal/pkg/logger"
	pkgretry "github.com/futig/fundqa-bot/internal/pkg/retry"
	"github.com/futig/fundqa-bot/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Message is the part of an incoming Telegram message the handler needs.
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
	Command   string
	Voice     *Voice
}

type Voice struct {
	FileID   string
	Duration int // seconds
}

type ChatHandler struct {
	api       Sender
	chat      ChatUsecase
	validator *validator.Validator
	sender    *MessageSender
	sendRetry pkgretry.RetryConfig
	logger    *zap.Logger

	transcriber      Transcriber
	files            FileDownloader
	maxVoiceDuration int
}

type Option func(*ChatHandler)

// WithVoice enables voice questions. maxDuration is in seconds, zero means no limit.
func WithVoice(transcriber Transcriber, files FileDownloader, maxDuration int) Option {
	return func(h *ChatHandler) {
		h.transcriber = transcriber
		h.files = files
		h.maxVoiceDuration = maxDuration
	}
}

func NewChatHandler(api Sender, chat ChatUsecase, validator *validator.Validator, logger *zap.Logger, opts ...Option) *ChatHandler {
	h := &ChatHandler{
		api:       api,
		chat:      chat,
		validator: validator,
		sender:    NewMessageSender(api, logger),
		sendRetry: defaultSendRetry(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ConversationID keys Telegram history by chat, so a group shares one conversation.
func ConversationID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (h *ChatHandler) Handle(ctx context.Context, msg *Message) error {
	ctx = logger.AddFields(ctx,
		zap.Int64("chat_id", msg.ChatID),
		zap.Int64("user_id", msg.UserID),
	)

	switch {
	case msg.Command != "":
		return h.handleCommand(ctx, msg)
	case msg.Voice != nil:
		return h.handleVoice(ctx, msg)
	default:
		return h.handleQuestion(ctx, msg.ChatID, msg.Text)
	}
}

func (h *ChatHandler) handleCommand(ctx context.Context, msg *Message) error {
	ctxzap.Info(ctx, "command received", zap.String("command", msg.Command))

	switch strings.ToLower(msg.Command) {
	case "start", "help":
		return h.sender.Send(msg.ChatID, MsgWelcome)
	case "clear":
		if err := h.chat.ClearHistory(ctx, ConversationID(msg.ChatID)); err != nil {
			h.HandleError(ctx, msg.ChatID, err)
			return nil
		}
		return h.sender.Send(msg.ChatID, MsgHistoryCleared)
	default:
		return h.sender.Send(msg.ChatID, MsgUnknownCommand)
	}
}

func (h *ChatHandler) handleVoice(ctx context.Context, msg *Message) error {
	if h.transcriber == nil || h.files == nil {
		return h.sender.Send(msg.ChatID, MsgVoiceUnsupported)
	}
	if h.maxVoiceDuration > 0 && msg.Voice.Duration > h.maxVoiceDuration {
		return h.sender.Send(msg.ChatID, fmt.Sprintf(MsgVoiceTooLong, h.maxVoiceDuration))
	}

	typing := NewTypingNotifier(h.api, msg.ChatID, h.logger)
	typing.Start(ctx)
	text, err := h.transcribe(ctx, msg.Voice)
	typing.Stop()

	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return h.sender.Send(msg.ChatID, MsgVoiceNotRecognized)
	}

	_ = h.sender.Send(msg.ChatID, fmt.Sprintf(MsgTranscribed, text))

	return h.handleQuestion(ctx, msg.ChatID, text)
}

func (h *ChatHandler) transcribe(ctx context.Context, voice *Voice) (string, error) {
	data, err := h.files.Download(ctx, voice.FileID)
	if err != nil {
		return "", fmt.Errorf("download voice: %w", err)
	}
	return h.transcriber.TranscribeBytes(ctx, data, "voice.ogg")
}

func (h *ChatHandler) handleQuestion(ctx context.Context, chatID int64, raw string) error {
	text, err := h.validator.ValidateMessage(raw)
	if err != nil {
		h.HandleError(ctx, chatID, err)
		return nil
	}

	typing := NewTypingNotifier(h.api, chatID, h.logger)
	typing.Start(ctx)
	exchange, err := h.chat.Ask(ctx, ConversationID(chatID), text)
	typing.Stop()

	if err != nil {
		h.HandleError(ctx, chatID, err)
		return nil
	}

	ctxzap.Info(ctx, "question answered", zap.Int("answer_length", len(exchange.Answer.Content)))

	return h.sendCriticalMessage(ctx, chatID, exchange.Answer.Content)
}
