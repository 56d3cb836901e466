package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/fundqa-bot/internal/api"
	chatapi "github.com/futig/fundqa-bot/internal/api/chat"
	"github.com/futig/fundqa-bot/internal/api/middleware"
	"github.com/futig/fundqa-bot/internal/api/web"
	"github.com/futig/fundqa-bot/internal/cli"
	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/pkg/logger"
	"github.com/futig/fundqa-bot/internal/pkg/validator"
	"github.com/futig/fundqa-bot/internal/telegram"
	"github.com/futig/fundqa-bot/internal/usecase/auth"
	"github.com/futig/fundqa-bot/internal/usecase/chat"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// core is everything the chat surfaces share.
type core struct {
	cfg        *config.Config
	logger     *zap.Logger
	connectors *connectors
	chatUC     *chat.ChatUsecase
	db         *pgxpool.Pool
}

func (c *core) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.connectors != nil {
		if err := c.connectors.graph.Close(ctx); err != nil {
			c.logger.Warn("close graph executor", zap.Error(err))
		}
	}
	if c.db != nil {
		c.logger.Info("Closing database connections")
		c.db.Close()
	}
}

func buildCore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*core, error) {
	c := &core{cfg: cfg, logger: log}

	messages, db, err := setupMessages(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	c.db = db

	conns, err := setupConnectors(ctx, cfg, log)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("setup connectors: %w", err)
	}
	c.connectors = conns
	log.Info("Connectors initialized")

	c.chatUC = chat.NewUsecase(
		conns.llm,
		conns.graph,
		conns.embedder,
		conns.store,
		chat.NewCypherValidator(cfg.Neptune.ReadOnly),
		messages,
		chat.Settings{
			Profile:   cfg.Chat.Profile,
			Index:     cfg.Chat.Index,
			TopK:      cfg.Chat.TopK,
			Dimension: cfg.Embedding.Dimension,
			ModelID:   cfg.LLM.ModelID,
			MaxTokens: cfg.LLM.MaxTokens,
		},
		log,
	)
	log.Info("Use cases initialized")

	return c, nil
}

func loadAndLog(component string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building "+component,
		zap.String("environment", cfg.Environment),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	return cfg, log, nil
}

// setupAuth loads the login credentials. Both results are nil when login is
// disabled; a nil *AuthUsecase must not reach the handlers as a non-nil interface.
func setupAuth(cfg config.AuthConfig, log *zap.Logger) (middleware.Authenticator, web.AuthUsecase, error) {
	if !cfg.Enabled {
		log.Warn("Login disabled, visitors get private guest sessions")
		return nil, nil, nil
	}

	creds, err := config.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load credentials: %w", err)
	}

	authUC := auth.NewUsecase(creds, log)
	log.Info("Login enabled", zap.Int("users", len(creds.Credentials.Usernames)))

	return authUC, authUC, nil
}

// Build assembles the HTTP chat server.
func Build() (*App, error) {
	ctx := context.Background()

	cfg, log, err := loadAndLog("chat server")
	if err != nil {
		return nil, err
	}

	c, err := buildCore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	inputValidator := validator.NewValidator(cfg.Chat)

	authenticator, webAuth, err := setupAuth(cfg.Auth, log)
	if err != nil {
		c.close()
		return nil, err
	}

	chatHandler := chatapi.NewHandler(c.chatUC, inputValidator)
	webHandler := web.NewHandler(c.chatUC, webAuth, inputValidator)
	log.Info("API handlers initialized")

	router := api.SetupRouter(chatHandler, webHandler, authenticator, cfg.Server, log)
	log.Info("HTTP router configured")

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("Application built successfully", zap.String("addr", cfg.Server.Addr))

	return &App{
		server: server,
		core:   c,
		logger: log,
	}, nil
}

// BuildTelegramBot assembles the Telegram chat surface.
func BuildTelegramBot() (*BotApp, error) {
	ctx := context.Background()

	cfg, log, err := loadAndLog("Telegram bot")
	if err != nil {
		return nil, err
	}
	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	c, err := buildCore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	bot, err := telegram.NewBot(
		&cfg.Telegram,
		c.chatUC,
		setupTranscriber(cfg, log),
		cfg.ASR.MaxVoiceDuration,
		validator.NewValidator(cfg.Chat),
		log,
	)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	log.Info("Telegram bot built successfully",
		zap.Int("allowed_users", len(cfg.Telegram.AllowedUserIDs)),
	)

	return &BotApp{
		bot:    bot,
		core:   c,
		logger: log,
	}, nil
}

// BuildIndexAdmin is the cli.Loader of the index-admin command.
func BuildIndexAdmin(ctx context.Context, env, configPath string) (*cli.Runtime, error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// keep stdout for command output
	log, err := logger.New("warn", cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	c, err := buildCore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &cli.Runtime{
		Store:   c.connectors.store,
		Chat:    c.chatUC,
		Index:   cfg.Chat.Index,
		Profile: cfg.Chat.Profile,
		TopK:    cfg.Chat.TopK,
		Close: func() {
			c.close()
			_ = log.Sync()
		},
	}, nil
}
