package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futig/fundqa-bot/internal/telegram"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// App is the HTTP chat server with its shared dependencies.
type App struct {
	server *http.Server
	core   *core
	logger *zap.Logger
}

// Run serves HTTP until SIGINT/SIGTERM or a server error.
func (a *App) Run() error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("Server error", zap.Error(err))
		a.core.close()
		return err
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("Shutting down server gracefully")
	defer a.core.close()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
		return err
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}

// BotApp is the Telegram bot with its shared dependencies.
type BotApp struct {
	bot    telegram.Bot
	core   *core
	logger *zap.Logger
}

// Run polls Telegram until SIGINT/SIGTERM.
func (a *BotApp) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer a.core.close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.logger.Info("starting telegram bot...")
	if err := a.bot.Start(ctx); err != nil {
		a.logger.Error("telegram bot error", zap.Error(err))
		return err
	}

	sig := <-sigChan
	a.logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	if err := a.bot.Stop(); err != nil {
		a.logger.Error("error stopping bot", zap.Error(err))
		return err
	}

	a.logger.Info("telegram bot stopped gracefully")
	return nil
}
