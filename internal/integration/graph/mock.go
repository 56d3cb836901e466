package graph

import (
	"context"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockExecutor returns a fixed fund manager graph for any query.
type MockExecutor struct {
	logger *zap.Logger
}

func NewMockExecutor(logger *zap.Logger) *MockExecutor {
	return &MockExecutor{logger: logger}
}

func (m *MockExecutor) Execute(ctx context.Context, query string) (entity.GraphResult, error) {
	ctxzap.Info(ctx, "[MOCK] executing openCypher query", zap.String("query", query))

	return entity.GraphResult{
		"results": []any{
			map[string]any{"m.name": "Zhang Kun", "f.name": "E Fund Blue Chip Select"},
			map[string]any{"m.name": "Zhang Kun", "f.name": "E Fund Quality Enterprise"},
			map[string]any{"m.name": "Zhang Kun", "f.name": "E Fund Asia Select"},
		},
	}, nil
}

func (m *MockExecutor) Close(context.Context) error {
	return nil
}
