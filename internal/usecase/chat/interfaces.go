package chat

import (
	"context"

	"github.com/futig/fundqa-bot/internal/entity"
)

type LLMConnector interface {
	Generate(ctx context.Context, req *entity.LLMGenerateRequest) (string, error)
	GenerateStream(ctx context.Context, req *entity.LLMGenerateRequest) (<-chan entity.StreamChunk, error)
}

type GraphExecutor interface {
	Execute(ctx context.Context, query string) (entity.GraphResult, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string, dimensions int, normalize bool) ([]float64, error)
}

type VectorSearch interface {
	Search(ctx context.Context, profile string, topK int, index string, vector []float64) ([]entity.SearchMatch, error)
}

// QueryValidator inspects a generated graph query before it runs. It may
// return a cleaned-up query.
type QueryValidator interface {
	Validate(ctx context.Context, query string) (string, error)
}
