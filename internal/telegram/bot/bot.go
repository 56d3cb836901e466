package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/telegram/handlers"
	"github.com/futig/fundqa-bot/internal/telegram/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// API is the subset of *tgbotapi.BotAPI the bot loop uses.
type API interface {
	handlers.Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api         API
	cfg         *config.TelegramConfig
	handler     *handlers.ChatHandler
	rateLimitMW *middleware.RateLimiterMiddleware
	middlewares []middleware.Middleware
	logger      *zap.Logger
	updatesChan tgbotapi.UpdatesChannel
	slots       chan struct{}
	stopChan    chan struct{}
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func New(api API, cfg *config.TelegramConfig, handler *handlers.ChatHandler, logger *zap.Logger) *Bot {
	slots := cfg.MaxConcurrentUsers
	if slots < 1 {
		slots = 1
	}

	b := &Bot{
		api:      api,
		cfg:      cfg,
		handler:  handler,
		logger:   logger,
		slots:    make(chan struct{}, slots),
		stopChan: make(chan struct{}),
	}

	b.rateLimitMW = middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger, api)
	b.middlewares = []middleware.Middleware{
		middleware.NewAllowlistMiddleware(cfg.AllowedUserIDs, logger, api),
		b.rateLimitMW,
		middleware.NewLoggingMiddleware(logger),
		middleware.NewRecoveryMiddleware(logger, api),
	}

	return b
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx, b.cancel = context.WithCancel(ctxzap.ToContext(ctx, b.logger))

	go b.rateLimitMW.RunCleanup(ctx)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops polling and waits for in-flight answers up to the shutdown timeout.
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	close(b.stopChan)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	defer func() {
		if b.cancel != nil {
			b.cancel()
		}
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.slots <- struct{}{}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer func() {
					<-b.slots
					b.wg.Done()
				}()
				middleware.Chain(u, func(u tgbotapi.Update) {
					b.handleUpdate(ctx, u)
				}, b.middlewares...)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	msg := &handlers.Message{
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		Text:      message.Text,
		Command:   message.Command(),
	}
	if message.From != nil {
		msg.UserID = message.From.ID
	}
	if message.Voice != nil {
		msg.Voice = &handlers.Voice{
			FileID:   message.Voice.FileID,
			Duration: message.Voice.Duration,
		}
	}

	if err := b.handler.Handle(ctx, msg); err != nil {
		ctxzap.Error(ctx, "handler error",
			zap.Error(err),
			zap.Int64("chat_id", msg.ChatID),
		)
	}
}
