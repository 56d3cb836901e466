package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	pkgHTTP "github.com/futig/fundqa-bot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIConnector embeds text through an OpenAI compatible embeddings API.
type OpenAIConnector struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIConnector(cfg config.EmbeddingConfig, timeout time.Duration, logger *zap.Logger) *OpenAIConnector {
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	clientCfg.HTTPClient = pkgHTTP.NewClient(
		pkgHTTP.WithRequestTimeout(timeout),
		pkgHTTP.WithResponseHeaderTimeout(timeout),
		pkgHTTP.WithRequestLogging(),
	)

	model := cfg.Name
	if model == "" || model == DefaultModelID {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIConnector{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}
}

func (c *OpenAIConnector) Embed(ctx context.Context, text string, dimensions int, normalize bool) ([]float64, error) {
	if err := validateInput(text, dimensions); err != nil {
		return nil, err
	}

	ctxzap.Debug(ctx, "embedding text via openai", zap.String("model", c.model), zap.Int("dimensions", dimensions))

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings %s: %w", c.model, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: want %d, got 0", entity.ErrDimensionMismatch, dimensions)
	}

	vector := make([]float64, len(resp.Data[0].Embedding))
	for i, x := range resp.Data[0].Embedding {
		vector[i] = float64(x)
	}
	if normalize {
		Normalize(vector)
	}

	return checkDimension(vector, dimensions)
}
