package graph

import (
	"context"
	"fmt"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// BoltExecutor runs openCypher over the Bolt protocol, which Neptune serves on
// the same port as HTTPS.
type BoltExecutor struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

func NewBoltExecutor(ctx context.Context, cfg config.NeptuneConfig, logger *zap.Logger) (*BoltExecutor, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	uri := boltURI(cfg)
	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled", zap.String("uri", uri))
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("create bolt driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify bolt connectivity: %w", err)
	}

	logger.Info("connected to graph over bolt", zap.String("uri", uri))

	return &BoltExecutor{driver: driver, logger: logger}, nil
}

// bolt+ssc accepts self-signed certificates, bolt+s verifies them.
func boltURI(cfg config.NeptuneConfig) string {
	scheme := "bolt+s"
	if cfg.InsecureSkipVerify {
		scheme = "bolt+ssc"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Endpoint, cfg.Port)
}

// Execute returns records in the same {"results": [...]} shape as the HTTPS endpoint.
func (e *BoltExecutor) Execute(ctx context.Context, query string) (entity.GraphResult, error) {
	ctxzap.Info(ctx, "executing openCypher query over bolt", zap.Int("query_length", len(query)))

	result, err := neo4j.ExecuteQuery(ctx, e.driver, query, nil, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("execute openCypher query: %w", err)
	}

	return recordsToResult(result.Records), nil
}

func (e *BoltExecutor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

func recordsToResult(records []*neo4j.Record) entity.GraphResult {
	rows := make([]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}
	return entity.GraphResult{"results": rows}
}
