package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const DefaultModelID = "amazon.titan-embed-text-v2:0"

type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput,
		optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Connector embeds text with Amazon Titan text embeddings on Bedrock.
type Connector struct {
	client  bedrockAPI
	modelID string
	logger  *zap.Logger
}

func NewConnector(client *bedrockruntime.Client, modelID string, logger *zap.Logger) *Connector {
	return newConnector(client, modelID, logger)
}

func newConnector(client bedrockAPI, modelID string, logger *zap.Logger) *Connector {
	if modelID == "" {
		modelID = DefaultModelID
	}
	return &Connector{
		client:  client,
		modelID: modelID,
		logger:  logger,
	}
}

// Embed returns a vector of exactly dimensions floats.
func (c *Connector) Embed(ctx context.Context, text string, dimensions int, normalize bool) ([]float64, error) {
	if err := validateInput(text, dimensions); err != nil {
		return nil, err
	}

	body, err := json.Marshal(entity.TitanEmbeddingBody{
		InputText:  text,
		Dimensions: dimensions,
		Normalize:  normalize,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding body: %w", err)
	}

	ctxzap.Debug(ctx, "embedding text via bedrock", zap.String("model_id", c.modelID), zap.Int("dimensions", dimensions))

	out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("invoke embedding model %s: %w", c.modelID, err)
	}

	var resp entity.TitanEmbeddingResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	return checkDimension(resp.Embedding, dimensions)
}

func validateInput(text string, dimensions int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text", entity.ErrMissingField)
	}
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", entity.ErrInvalidParameter, dimensions)
	}
	return nil
}

func checkDimension(vector []float64, dimensions int) ([]float64, error) {
	if len(vector) != dimensions {
		return nil, fmt.Errorf("%w: want %d, got %d", entity.ErrDimensionMismatch, dimensions, len(vector))
	}
	return vector, nil
}

// Normalize scales v to unit length in place. A zero vector is left as is.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
	return v
}
