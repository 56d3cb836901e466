package llm

import (
	"context"
	"strings"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers without calling a model. Prompts asking for a query
// get a fixed read-only Cypher statement, anything else is echoed back.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

const mockCypher = "MATCH (m:FundManager)-[:manage]->(f:Fund) RETURN m.name, f.name LIMIT 30"

func (m *MockConnector) Generate(ctx context.Context, req *entity.LLMGenerateRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating text via LLM")

	if strings.Contains(strings.ToLower(req.UserPrompt), "cypher query") {
		return mockCypher, nil
	}
	return "[MOCK] " + req.UserPrompt, nil
}

func (m *MockConnector) GenerateStream(ctx context.Context, req *entity.LLMGenerateRequest) (<-chan entity.StreamChunk, error) {
	text, err := m.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	chunks := make(chan entity.StreamChunk)
	go func() {
		defer close(chunks)
		for _, word := range strings.SplitAfter(text, " ") {
			select {
			case chunks <- entity.StreamChunk{Text: word}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, nil
}
