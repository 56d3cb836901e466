package asr

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/futig/fundqa-bot/internal/config"
	pkgHTTP "github.com/futig/fundqa-bot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Connector transcribes audio through an OpenAI compatible transcription API.
type Connector struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewConnector(cfg config.ASRConfig, logger *zap.Logger) *Connector {
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	clientCfg.HTTPClient = pkgHTTP.NewClient(
		pkgHTTP.WithRequestTimeout(cfg.Timeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.Timeout),
		pkgHTTP.WithRequestLogging(),
	)

	return &Connector{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}
}

func (c *Connector) TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("empty audio data provided")
	}

	hash := sha256.Sum256(audioData)

	ctxzap.Info(ctx, "transcribing audio",
		zap.String("model", c.model),
		zap.String("filename", filename),
		zap.String("checksum", hex.EncodeToString(hash[:])),
		zap.Int("size", len(audioData)),
	)

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audioData),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	ctxzap.Info(ctx, "audio transcribed successfully", zap.Int("transcription_length", len(resp.Text)))

	return resp.Text, nil
}
