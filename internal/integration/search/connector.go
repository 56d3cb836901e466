package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/integration/common"
	pkghttp "github.com/futig/fundqa-bot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"go.uber.org/zap"
)

const vectorField = "vector_field"

// Connector is the OpenSearch k-NN client: queries, index administration and
// sample management.
type Connector struct {
	client    opensearchapi.Transport
	embedder  Embedder
	dimension int
	logger    *zap.Logger
}

// NewConnector connects to https://host:port. host is the resolved endpoint
// (see ResolveHost).
func NewConnector(
	cfg config.OpenSearchConfig,
	host string,
	embedder Embedder,
	dimension int,
	logger *zap.Logger,
) (*Connector, error) {
	return newConnector(fmt.Sprintf("https://%s:%d", host, cfg.Port), cfg, embedder, dimension, logger)
}

func newConnector(
	address string,
	cfg config.OpenSearchConfig,
	embedder Embedder,
	dimension int,
	logger *zap.Logger,
) (*Connector, error) {
	// the base connector owns the TLS policy and request logging
	base := common.NewBaseConnector(address, cfg.HTTPClientConfig, cfg.InsecureSkipVerify, logger)

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{address},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: base.HTTPClient().Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	return &Connector{
		client:    &deadlineTransport{next: client, timeout: cfg.RequestTimeout},
		embedder:  embedder,
		dimension: dimension,
		logger:    logger,
	}, nil
}

// Search runs a k-NN query restricted to one profile. Hits keep the engine's order.
func (c *Connector) Search(ctx context.Context, profile string, topK int, index string, vector []float64) ([]entity.SearchMatch, error) {
	ctxzap.Info(ctx, "searching vector index",
		zap.String("index", index),
		zap.String("profile", profile),
		zap.Int("top_k", topK),
	)

	body := knnQuery(entity.SearchRequest{Profile: profile, TopK: topK, Index: index, Vector: vector})

	matches, err := c.search(ctx, index, body)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "vector search completed", zap.Int("match_count", len(matches)))

	return matches, nil
}

// SearchText embeds text with the configured dimension and searches with it.
func (c *Connector) SearchText(ctx context.Context, profile string, topK int, index, text string) ([]entity.SearchMatch, error) {
	vector, err := c.embedder.Embed(ctx, text, c.dimension, true)
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}
	return c.Search(ctx, profile, topK, index, vector)
}

func knnQuery(req entity.SearchRequest) map[string]any {
	return map[string]any{
		"size": req.TopK,
		"_source": map[string]any{
			"excludes": []string{vectorField},
		},
		"query": map[string]any{
			"bool": map[string]any{
				"filter": map[string]any{
					"match_phrase": map[string]any{"profile": req.Profile},
				},
				"must": []any{
					map[string]any{
						"knn": map[string]any{
							vectorField: map[string]any{
								"vector": req.Vector,
								"k":      req.TopK,
							},
						},
					},
				},
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string              `json:"_id"`
			Score  float64             `json:"_score"`
			Source entity.SampleSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Connector) search(ctx context.Context, index string, query map[string]any) ([]entity.SearchMatch, error) {
	body, err := encode(query)
	if err != nil {
		return nil, err
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  body,
	}.Do(ctx, c.client)
	if err != nil {
		return nil, &pkghttp.NetworkError{Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search index %s: %w", index, responseError(res))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	matches := make([]entity.SearchMatch, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		matches = append(matches, entity.SearchMatch{
			ID:     hit.ID,
			Score:  hit.Score,
			Source: hit.Source,
		})
	}

	return matches, nil
}

// deadlineTransport bounds every OpenSearch call by timeout. The deadline
// stays in force until the response body is closed. Zero means no deadline.
type deadlineTransport struct {
	next    opensearchapi.Transport
	timeout time.Duration
}

func (t *deadlineTransport) Perform(req *http.Request) (*http.Response, error) {
	if t.timeout <= 0 {
		return t.next.Perform(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), t.timeout)
	res, err := t.next.Perform(req.WithContext(ctx))
	if err != nil || res == nil || res.Body == nil {
		cancel()
		return res, err
	}

	res.Body = &cancelOnClose{ReadCloser: res.Body, cancel: cancel}
	return res, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func encode(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// responseError reads the body of a failed response into an HTTPError.
func responseError(res *opensearchapi.Response) error {
	msg, _ := io.ReadAll(res.Body)
	return &pkghttp.HTTPError{StatusCode: res.StatusCode, Message: string(msg)}
}

func isNotFound(res *opensearchapi.Response) bool {
	return res.StatusCode == http.StatusNotFound
}
