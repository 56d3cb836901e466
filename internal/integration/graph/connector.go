package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/integration/common"
	pkghttp "github.com/futig/fundqa-bot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const openCypherEndpoint = "/openCypher"

// Connector runs openCypher queries against the Neptune HTTPS endpoint.
type Connector struct {
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(cfg config.NeptuneConfig, logger *zap.Logger) *Connector {
	return newConnector(fmt.Sprintf("https://%s:%d", cfg.Endpoint, cfg.Port), cfg, logger)
}

func newConnector(baseURL string, cfg config.NeptuneConfig, logger *zap.Logger) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(
			baseURL,
			cfg.HTTPClientConfig,
			cfg.InsecureSkipVerify,
			logger,
			pkghttp.WithBasicAuth(cfg.Username, cfg.Password),
		),
		logger: logger,
	}
}

// Execute posts the query as the "query" form field and returns the decoded body.
// Any status other than 200 is returned as *pkghttp.HTTPError carrying the body text.
func (c *Connector) Execute(ctx context.Context, query string) (entity.GraphResult, error) {
	ctxzap.Info(ctx, "executing openCypher query", zap.Int("query_length", len(query)))

	var result entity.GraphResult
	form := url.Values{"query": {query}}
	err := c.connector.DoFormRequest(ctx, http.MethodPost, openCypherEndpoint, form, &result, pkghttp.WithExpectedStatus(http.StatusOK))
	if err != nil {
		return nil, fmt.Errorf("execute openCypher query: %w", err)
	}

	if result == nil {
		result = entity.GraphResult{}
	}

	return result, nil
}

func (c *Connector) Close(context.Context) error {
	return nil
}
