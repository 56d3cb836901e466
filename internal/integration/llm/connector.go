package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	pkgRetry "github.com/futig/fundqa-bot/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const contentTypeJSON = "application/json"

type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput,
		optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// responseStream is satisfied by *bedrockruntime.InvokeModelWithResponseStreamEventStream.
type responseStream interface {
	Events() <-chan types.ResponseStream
	Close() error
	Err() error
}

type streamOpener func(ctx context.Context, input *bedrockruntime.InvokeModelWithResponseStreamInput) (responseStream, error)

// Connector invokes Meta Llama 3 models hosted on Amazon Bedrock.
type Connector struct {
	client     bedrockAPI
	openStream streamOpener
	config     config.LLMConfig
	retry      pkgRetry.RetryConfig
	logger     *zap.Logger
}

func NewConnector(
	client *bedrockruntime.Client,
	cfg config.LLMConfig,
	retryCfg pkgRetry.RetryConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		client: client,
		openStream: func(ctx context.Context, input *bedrockruntime.InvokeModelWithResponseStreamInput) (responseStream, error) {
			out, err := client.InvokeModelWithResponseStream(ctx, input)
			if err != nil {
				return nil, err
			}
			return out.GetStream(), nil
		},
		config: cfg,
		retry:  retryCfg.WithDefaults(),
		logger: logger,
	}
}

// Generate runs one non-streaming completion and returns the generated text.
func (c *Connector) Generate(ctx context.Context, req *entity.LLMGenerateRequest) (string, error) {
	modelID := c.modelID(req)
	body, err := c.invokeBody(req)
	if err != nil {
		return "", err
	}

	ctxzap.Info(ctx, "invoking bedrock model", zap.String("model_id", modelID), zap.Int("prompt_length", len(req.UserPrompt)))

	out, err := retry.DoWithData(
		func() (*bedrockruntime.InvokeModelOutput, error) {
			return c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
				ModelId:     aws.String(modelID),
				Body:        body,
				ContentType: aws.String(contentTypeJSON),
				Accept:      aws.String(contentTypeJSON),
			})
		},
		c.retryOptions(ctx, modelID)...,
	)
	if err != nil {
		ctxzap.Error(ctx, "bedrock invocation failed", zap.String("model_id", modelID), zap.Error(err))
		return "", fmt.Errorf("invoke model %s: %w", modelID, err)
	}

	var resp entity.LlamaInvokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}

	if strings.TrimSpace(resp.Generation) == "" {
		return "", entity.ErrEmptyGeneration
	}

	ctxzap.Info(ctx, "bedrock model responded",
		zap.String("model_id", modelID),
		zap.Int("generation_tokens", resp.GenerationTokenCount),
		zap.String("stop_reason", resp.StopReason),
	)

	return resp.Generation, nil
}

// GenerateStream opens a streamed completion. The channel is closed when the
// stream ends; a broken stream delivers a final chunk with Err set.
func (c *Connector) GenerateStream(ctx context.Context, req *entity.LLMGenerateRequest) (<-chan entity.StreamChunk, error) {
	modelID := c.modelID(req)
	body, err := c.invokeBody(req)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "opening bedrock response stream", zap.String("model_id", modelID))

	stream, err := retry.DoWithData(
		func() (responseStream, error) {
			return c.openStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
				ModelId:     aws.String(modelID),
				Body:        body,
				ContentType: aws.String(contentTypeJSON),
				Accept:      aws.String(contentTypeJSON),
			})
		},
		c.retryOptions(ctx, modelID)...,
	)
	if err != nil {
		ctxzap.Error(ctx, "bedrock stream failed to open", zap.String("model_id", modelID), zap.Error(err))
		return nil, fmt.Errorf("invoke model stream %s: %w", modelID, err)
	}

	chunks := make(chan entity.StreamChunk)
	go func() {
		defer close(chunks)
		defer stream.Close()

		send := func(chunk entity.StreamChunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for event := range stream.Events() {
			part, ok := event.(*types.ResponseStreamMemberChunk)
			if !ok {
				continue
			}

			var resp entity.LlamaInvokeResponse
			if err := json.Unmarshal(part.Value.Bytes, &resp); err != nil {
				send(entity.StreamChunk{Err: fmt.Errorf("decode stream chunk: %w", err)})
				return
			}
			if resp.Generation == "" {
				continue
			}
			if !send(entity.StreamChunk{Text: resp.Generation}) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			ctxzap.Error(ctx, "bedrock stream broke", zap.String("model_id", modelID), zap.Error(err))
			send(entity.StreamChunk{Err: err})
		}
	}()

	return chunks, nil
}

func (c *Connector) modelID(req *entity.LLMGenerateRequest) string {
	if req.ModelID != "" {
		return req.ModelID
	}
	return c.config.ModelID
}

func (c *Connector) invokeBody(req *entity.LLMGenerateRequest) ([]byte, error) {
	body, err := json.Marshal(entity.LlamaInvokeBody{
		Prompt:      FormatLlama3(req.SystemPrompt, req.UserPrompt),
		MaxGenLen:   maxTokens(req.MaxTokens, c.config.MaxTokens),
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal invoke body: %w", err)
	}
	return body, nil
}

func (c *Connector) retryOptions(ctx context.Context, modelID string) []retry.Option {
	return append(c.retry.ToRetryOptions(ctx),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "retrying bedrock invocation",
				zap.String("model_id", modelID),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
}
