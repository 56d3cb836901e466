package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	pkgRetry "github.com/futig/fundqa-bot/internal/pkg/retry"
	pkgHTTP "github.com/futig/fundqa-bot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIConnector talks to any OpenAI compatible chat completions API.
type OpenAIConnector struct {
	client *openai.Client
	config config.LLMConfig
	retry  pkgRetry.RetryConfig
	logger *zap.Logger
}

func NewOpenAIConnector(
	cfg config.LLMConfig,
	retryCfg pkgRetry.RetryConfig,
	readTimeout time.Duration,
	logger *zap.Logger,
) *OpenAIConnector {
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	clientCfg.HTTPClient = pkgHTTP.NewClient(
		pkgHTTP.WithRequestTimeout(readTimeout),
		pkgHTTP.WithResponseHeaderTimeout(readTimeout),
		pkgHTTP.WithRequestLogging(),
	)

	return &OpenAIConnector{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		retry:  retryCfg.WithDefaults(),
		logger: logger,
	}
}

func (c *OpenAIConnector) Generate(ctx context.Context, req *entity.LLMGenerateRequest) (string, error) {
	chatReq := c.chatRequest(req)

	ctxzap.Info(ctx, "invoking openai compatible model", zap.String("model_id", chatReq.Model))

	resp, err := retry.DoWithData(
		func() (openai.ChatCompletionResponse, error) {
			return c.client.CreateChatCompletion(ctx, chatReq)
		},
		c.retryOptions(ctx, chatReq.Model)...,
	)
	if err != nil {
		ctxzap.Error(ctx, "openai invocation failed", zap.String("model_id", chatReq.Model), zap.Error(err))
		return "", fmt.Errorf("create chat completion %s: %w", chatReq.Model, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", entity.ErrEmptyGeneration
	}

	ctxzap.Info(ctx, "openai compatible model responded",
		zap.String("model_id", chatReq.Model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIConnector) GenerateStream(ctx context.Context, req *entity.LLMGenerateRequest) (<-chan entity.StreamChunk, error) {
	chatReq := c.chatRequest(req)
	chatReq.Stream = true

	stream, err := retry.DoWithData(
		func() (*openai.ChatCompletionStream, error) {
			return c.client.CreateChatCompletionStream(ctx, chatReq)
		},
		c.retryOptions(ctx, chatReq.Model)...,
	)
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream %s: %w", chatReq.Model, err)
	}

	chunks := make(chan entity.StreamChunk)
	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}

			var chunk entity.StreamChunk
			if err != nil {
				chunk.Err = err
			} else if len(resp.Choices) > 0 {
				chunk.Text = resp.Choices[0].Delta.Content
			}
			if chunk.Err == nil && chunk.Text == "" {
				continue
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
			if chunk.Err != nil {
				return
			}
		}
	}()

	return chunks, nil
}

func (c *OpenAIConnector) chatRequest(req *entity.LLMGenerateRequest) openai.ChatCompletionRequest {
	model := req.ModelID
	if model == "" {
		model = c.config.ModelID
	}

	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens:   maxTokens(req.MaxTokens, c.config.MaxTokens),
		Temperature: float32(c.config.Temperature),
		TopP:        float32(c.config.TopP),
	}
}

func (c *OpenAIConnector) retryOptions(ctx context.Context, model string) []retry.Option {
	return append(c.retry.ToRetryOptions(ctx),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "retrying openai invocation", zap.String("model_id", model), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}
