package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/pkg/formatter"
	"github.com/futig/fundqa-bot/internal/pkg/logger"
	"github.com/futig/fundqa-bot/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Settings fixes where the pipeline looks for evidence.
type Settings struct {
	Profile   string
	Index     string
	TopK      int
	Dimension int
	ModelID   string
	MaxTokens int
}

// ChatUsecase answers fund questions from graph data and curated samples and
// keeps per-conversation history.
type ChatUsecase struct {
	llm        LLMConnector
	graph      GraphExecutor
	embedder   Embedder
	search     VectorSearch
	validator  QueryValidator
	messages   repository.MessageRepository
	formatters *formatter.Factory
	settings   Settings
	logger     *zap.Logger
}

// NewUsecase creates the chat use case. validator may be nil.
func NewUsecase(
	llm LLMConnector,
	graph GraphExecutor,
	embedder Embedder,
	search VectorSearch,
	validator QueryValidator,
	messages repository.MessageRepository,
	settings Settings,
	logger *zap.Logger,
) *ChatUsecase {
	if settings.TopK < 1 {
		settings.TopK = 1
	}
	return &ChatUsecase{
		llm:        llm,
		graph:      graph,
		embedder:   embedder,
		search:     search,
		validator:  validator,
		messages:   messages,
		formatters: formatter.NewFactory(),
		settings:   settings,
		logger:     logger,
	}
}

// Answer runs the pipeline once. Failures are logged and replaced by
// entity.GenericChatError, so the result is never empty.
func (uc *ChatUsecase) Answer(ctx context.Context, userInput string) string {
	trace, err := uc.AnswerDetailed(ctx, userInput)
	if err != nil {
		ctxzap.Extract(ctx).Error("chat pipeline failed",
			zap.Error(err),
			zap.String("generated_query", trace.GeneratedQuery),
		)
		return entity.GenericChatError
	}
	return trace.Answer
}

// AnswerDetailed runs the pipeline and returns every intermediate value. On
// error the trace holds whatever was produced before the failing step.
func (uc *ChatUsecase) AnswerDetailed(ctx context.Context, userInput string) (*entity.ChatTrace, error) {
	ctx = logger.WithAction(ctx, "answer")
	trace := &entity.ChatTrace{Question: userInput}

	if strings.TrimSpace(userInput) == "" {
		return trace, fmt.Errorf("%w: user input", entity.ErrMissingField)
	}

	query, err := uc.generate(ctx, cypherPrompt(userInput))
	if err != nil {
		return trace, fmt.Errorf("generate graph query: %w", err)
	}
	trace.GeneratedQuery = query

	if uc.validator != nil {
		query, err = uc.validator.Validate(ctx, query)
		if err != nil {
			return trace, fmt.Errorf("validate graph query: %w", err)
		}
		trace.GeneratedQuery = query
	}

	ctxzap.Info(ctx, "graph query generated", zap.String("query", query))

	result, err := uc.graph.Execute(ctx, query)
	if err != nil {
		return trace, fmt.Errorf("execute graph query: %w", err)
	}

	graphText, err := formatGraphResult(result)
	if err != nil {
		return trace, err
	}
	trace.GraphResult = graphText

	evidence, err := uc.findEvidence(ctx, userInput)
	if err != nil {
		return trace, err
	}
	trace.Evidence = evidence

	answer, err := uc.generate(ctx, synthesisPrompt(graphText, evidence, userInput))
	if err != nil {
		return trace, fmt.Errorf("generate answer: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return trace, fmt.Errorf("generate answer: %w", entity.ErrEmptyGeneration)
	}
	trace.Answer = answer

	ctxzap.Info(ctx, "answer generated", zap.Int("answer_length", len(answer)))

	return trace, nil
}

func (uc *ChatUsecase) generate(ctx context.Context, userPrompt string) (string, error) {
	return uc.llm.Generate(ctx, &entity.LLMGenerateRequest{
		ModelID:      uc.settings.ModelID,
		SystemPrompt: SystemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    uc.settings.MaxTokens,
	})
}

// findEvidence returns the answer of the best matching sample, or noEvidence
// when the profile has none.
func (uc *ChatUsecase) findEvidence(ctx context.Context, userInput string) (string, error) {
	vector, err := uc.embedder.Embed(ctx, userInput, uc.settings.Dimension, true)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	matches, err := uc.search.Search(ctx, uc.settings.Profile, uc.settings.TopK, uc.settings.Index, vector)
	if err != nil {
		return "", fmt.Errorf("search samples: %w", err)
	}

	if len(matches) == 0 {
		ctxzap.Warn(ctx, "no related samples",
			zap.String("profile", uc.settings.Profile),
			zap.String("index", uc.settings.Index),
		)
		return noEvidence, nil
	}

	return matches[0].Source.Answer, nil
}

// formatGraphResult renders the result as two-space indented JSON for the
// prompt. HTML characters stay literal.
func formatGraphResult(result entity.GraphResult) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return "", fmt.Errorf("serialize graph result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Stream passes a single prompt straight to the model and relays its output.
func (uc *ChatUsecase) Stream(ctx context.Context, req *entity.StreamRequest) (<-chan entity.StreamChunk, error) {
	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}

	stream, err := uc.llm.GenerateStream(ctx, &entity.LLMGenerateRequest{
		ModelID:      uc.settings.ModelID,
		SystemPrompt: systemPrompt,
		UserPrompt:   req.Prompt,
		MaxTokens:    uc.settings.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("open model stream: %w", err)
	}
	return stream, nil
}
