package builder

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/futig/fundqa-bot/internal/cli"
	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/integration/asr"
	"github.com/futig/fundqa-bot/internal/integration/common"
	"github.com/futig/fundqa-bot/internal/integration/embedding"
	"github.com/futig/fundqa-bot/internal/integration/graph"
	"github.com/futig/fundqa-bot/internal/integration/llm"
	"github.com/futig/fundqa-bot/internal/integration/search"
	"github.com/futig/fundqa-bot/internal/telegram/handlers"
	"github.com/futig/fundqa-bot/internal/usecase/chat"
	"go.uber.org/zap"
)

type graphExecutor interface {
	chat.GraphExecutor
	Close(ctx context.Context) error
}

type vectorStore interface {
	chat.VectorSearch
	cli.IndexStore
}

type connectors struct {
	llm      chat.LLMConnector
	embedder chat.Embedder
	graph    graphExecutor
	store    vectorStore
}

func setupConnectors(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*connectors, error) {
	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		return setupMockConnectors(ctx, cfg, logger)
	}

	logger.Info("Using real connectors for external services",
		zap.String("llm_platform", cfg.LLM.Platform),
		zap.String("embedding_platform", cfg.Embedding.Platform),
		zap.String("graph_protocol", cfg.Neptune.Protocol),
	)

	llmConnector, err := setupLLM(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := setupEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := setupSearch(ctx, cfg, embedder, logger)
	if err != nil {
		return nil, err
	}

	graphExec, err := setupGraph(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &connectors{
		llm:      llmConnector,
		embedder: embedder,
		graph:    graphExec,
		store:    store,
	}, nil
}

func setupLLM(ctx context.Context, cfg *config.Config, logger *zap.Logger) (chat.LLMConnector, error) {
	if cfg.LLM.Platform == config.PlatformOpenAI {
		return llm.NewOpenAIConnector(cfg.LLM, cfg.Bedrock.Retry, cfg.Bedrock.ReadTimeout, logger), nil
	}

	awsCfg, err := common.NewBedrockAWSConfig(ctx, cfg.Bedrock.Region, cfg.Bedrock.SecretID, cfg.Bedrock.ReadTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("setup bedrock llm: %w", err)
	}

	return llm.NewConnector(bedrockruntime.NewFromConfig(awsCfg), cfg.LLM, cfg.Bedrock.Retry, logger), nil
}

func setupEmbedder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (chat.Embedder, error) {
	if cfg.Embedding.Platform == config.PlatformOpenAI {
		return embedding.NewOpenAIConnector(cfg.Embedding, cfg.Bedrock.ReadTimeout, logger), nil
	}

	// the embedding model may live in another region than the chat model
	awsCfg, err := common.NewBedrockAWSConfig(ctx, cfg.Embedding.Region, cfg.Bedrock.SecretID, cfg.Bedrock.ReadTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("setup bedrock embedding: %w", err)
	}

	return embedding.NewConnector(bedrockruntime.NewFromConfig(awsCfg), cfg.Embedding.Name, logger), nil
}

func setupSearch(ctx context.Context, cfg *config.Config, embedder chat.Embedder, logger *zap.Logger) (vectorStore, error) {
	var awsCfg aws.Config
	if cfg.OpenSearch.Host == "" {
		var err error
		awsCfg, err = common.NewAWSConfig(ctx, cfg.OpenSearch.Region, cfg.OpenSearch.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("setup opensearch aws config: %w", err)
		}
	}

	host, err := search.ResolveHost(ctx, cfg.OpenSearch, awsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("resolve opensearch host: %w", err)
	}

	store, err := search.NewConnector(cfg.OpenSearch, host, embedder, cfg.Embedding.Dimension, logger)
	if err != nil {
		return nil, fmt.Errorf("setup opensearch: %w", err)
	}
	return store, nil
}

func setupGraph(ctx context.Context, cfg *config.Config, logger *zap.Logger) (graphExecutor, error) {
	if cfg.Neptune.Protocol == config.GraphProtocolBolt {
		executor, err := graph.NewBoltExecutor(ctx, cfg.Neptune, logger)
		if err != nil {
			return nil, fmt.Errorf("setup bolt graph executor: %w", err)
		}
		return executor, nil
	}
	return graph.NewConnector(cfg.Neptune, logger), nil
}

func setupMockConnectors(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*connectors, error) {
	embedder := embedding.NewMockConnector()
	store := search.NewMemoryStore(embedder, cfg.Embedding.Dimension, logger)

	if err := seedMockSamples(ctx, store, cfg.Chat); err != nil {
		return nil, fmt.Errorf("seed mock samples: %w", err)
	}

	return &connectors{
		llm:      llm.NewMockConnector(logger),
		embedder: embedder,
		graph:    graph.NewMockExecutor(logger),
		store:    store,
	}, nil
}

var mockSamples = []struct{ text, answer string }{
	{
		text:   "Who is Zhang Kun and which funds does he manage?",
		answer: "Zhang Kun is a fund manager at E Fund Management. He manages E Fund Blue Chip Select and E Fund Quality Enterprise.",
	},
	{
		text:   "Which company manages E Fund Blue Chip Select?",
		answer: "E Fund Blue Chip Select is managed by E Fund Management Co., Ltd.",
	},
}

func seedMockSamples(ctx context.Context, store *search.MemoryStore, cfg config.ChatConfig) error {
	if err := store.EnsureIndex(ctx, cfg.Index); err != nil {
		return err
	}
	for _, s := range mockSamples {
		if _, err := store.AddSample(ctx, entity.Sample{
			Index:   cfg.Index,
			Profile: cfg.Profile,
			Text:    s.text,
			Answer:  s.answer,
		}); err != nil {
			return err
		}
	}
	return nil
}

// setupTranscriber returns nil when voice questions are disabled.
func setupTranscriber(cfg *config.Config, logger *zap.Logger) handlers.Transcriber {
	switch {
	case !cfg.ASR.Enabled:
		return nil
	case cfg.EnableMocks:
		return asr.NewMockConnector(logger)
	default:
		return asr.NewConnector(cfg.ASR, logger)
	}
}
