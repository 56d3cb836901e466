package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/futig/fundqa-bot/internal/entity"
	pkghttp "github.com/futig/fundqa-bot/pkg/http"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"go.uber.org/zap"
)

type acknowledgedResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

func (c *Connector) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, c.client)
	if err != nil {
		return false, &pkghttp.NetworkError{Err: err}
	}
	defer res.Body.Close()

	if isNotFound(res) {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("check index %s: %w", index, responseError(res))
	}
	return true, nil
}

// CreateIndex creates a k-NN enabled index scored by cosine similarity,
// with the field mapping in the same request.
func (c *Connector) CreateIndex(ctx context.Context, index string) error {
	body, err := encode(map[string]any{
		"settings": map[string]any{
			"index": map[string]any{
				"knn":            true,
				"knn.space_type": "cosinesimil",
			},
		},
		"mappings": c.mapping(),
	})
	if err != nil {
		return err
	}

	res, err := opensearchapi.IndicesCreateRequest{Index: index, Body: body}.Do(ctx, c.client)
	if err != nil {
		return &pkghttp.NetworkError{Err: err}
	}
	defer res.Body.Close()

	return acknowledged(res, "create index "+index)
}

// PutMapping declares the vector field on an existing index.
func (c *Connector) PutMapping(ctx context.Context, index string) error {
	body, err := encode(c.mapping())
	if err != nil {
		return err
	}

	res, err := opensearchapi.IndicesPutMappingRequest{Index: []string{index}, Body: body}.Do(ctx, c.client)
	if err != nil {
		return &pkghttp.NetworkError{Err: err}
	}
	defer res.Body.Close()

	return acknowledged(res, "put mapping "+index)
}

// mapping declares the vector field with the configured dimension and the
// keyword fields used for filtering.
func (c *Connector) mapping() map[string]any {
	return map[string]any{
		"properties": map[string]any{
			vectorField: map[string]any{
				"type":      "knn_vector",
				"dimension": c.dimension,
			},
			"text":    map[string]any{"type": "keyword"},
			"profile": map[string]any{"type": "keyword"},
		},
	}
}

// EnsureIndex creates the index with its mapping unless the index already exists.
func (c *Connector) EnsureIndex(ctx context.Context, index string) error {
	exists, err := c.IndexExists(ctx, index)
	if err != nil {
		return err
	}
	if exists {
		ctxzap.Debug(ctx, "index already exists", zap.String("index", index))
		return nil
	}

	ctxzap.Info(ctx, "creating vector index", zap.String("index", index), zap.Int("dimension", c.dimension))

	return c.CreateIndex(ctx, index)
}

// DeleteIndex removes the index. A missing index counts as deleted.
func (c *Connector) DeleteIndex(ctx context.Context, index string) error {
	res, err := opensearchapi.IndicesDeleteRequest{Index: []string{index}}.Do(ctx, c.client)
	if err != nil {
		return &pkghttp.NetworkError{Err: err}
	}
	defer res.Body.Close()

	if isNotFound(res) {
		ctxzap.Info(ctx, "index not found, nothing to delete", zap.String("index", index))
		return nil
	}

	return acknowledged(res, "delete index "+index)
}

type bulkResponse struct {
	Errors bool                         `json:"errors"`
	Items  []map[string]bulkItemOutcome `json:"items"`
}

type bulkItemOutcome struct {
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// BulkInsert writes samples in one _bulk call. Samples without an ID get a
// random one.
func (c *Connector) BulkInsert(ctx context.Context, samples []entity.Sample) (entity.BulkResult, error) {
	if len(samples) == 0 {
		return entity.BulkResult{}, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range samples {
		if samples[i].ID == "" {
			samples[i].ID = uuid.NewString()
		}
		s := samples[i]
		if err := enc.Encode(map[string]any{"index": map[string]string{"_index": s.Index, "_id": s.ID}}); err != nil {
			return entity.BulkResult{}, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(entity.SampleSource{Text: s.Text, Answer: s.Answer, Profile: s.Profile, Vector: s.Vector}); err != nil {
			return entity.BulkResult{}, fmt.Errorf("encode bulk document: %w", err)
		}
	}

	ctxzap.Info(ctx, "putting documents in vector index", zap.Int("count", len(samples)))

	res, err := opensearchapi.BulkRequest{Body: &buf, Refresh: "true"}.Do(ctx, c.client)
	if err != nil {
		return entity.BulkResult{}, &pkghttp.NetworkError{Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return entity.BulkResult{}, fmt.Errorf("bulk insert: %w", responseError(res))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return entity.BulkResult{}, fmt.Errorf("decode bulk response: %w", err)
	}

	var result entity.BulkResult
	for _, item := range parsed.Items {
		for _, outcome := range item {
			if outcome.Status >= 200 && outcome.Status < 300 {
				result.Succeeded++
			} else {
				result.Failed++
				ctxzap.Warn(ctx, "bulk item rejected", zap.String("id", outcome.ID), zap.ByteString("error", outcome.Error))
			}
		}
	}

	return result, nil
}

func acknowledged(res *opensearchapi.Response, op string) error {
	if res.IsError() {
		return fmt.Errorf("%s: %w", op, responseError(res))
	}

	var ack acknowledgedResponse
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if !ack.Acknowledged {
		return fmt.Errorf("%s: %w", op, entity.ErrIndexNotAcknowledged)
	}
	return nil
}
