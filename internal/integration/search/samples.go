package search

import (
	"context"
	"fmt"

	"github.com/futig/fundqa-bot/internal/entity"
	pkghttp "github.com/futig/fundqa-bot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"go.uber.org/zap"
)

const listSamplesSize = 5000

// AddSample embeds text when the sample has no vector yet and stores it.
// It returns the document ID.
func (c *Connector) AddSample(ctx context.Context, sample entity.Sample) (string, error) {
	if sample.Text == "" || sample.Answer == "" || sample.Profile == "" {
		return "", fmt.Errorf("%w: text, answer and profile are required", entity.ErrMissingField)
	}

	if len(sample.Vector) == 0 {
		vector, err := c.embedder.Embed(ctx, sample.Text, c.dimension, true)
		if err != nil {
			return "", fmt.Errorf("embed sample text: %w", err)
		}
		sample.Vector = vector
	}

	samples := []entity.Sample{sample}
	result, err := c.BulkInsert(ctx, samples)
	if err != nil {
		return "", err
	}
	if result.Succeeded != 1 {
		return "", fmt.Errorf("add sample: %d of 1 documents rejected", result.Failed)
	}

	ctxzap.Info(ctx, "sample added", zap.String("index", sample.Index), zap.String("id", samples[0].ID))

	return samples[0].ID, nil
}

// ListSamples returns up to 5000 samples of one profile without their vectors.
func (c *Connector) ListSamples(ctx context.Context, index, profile string) ([]entity.SearchMatch, error) {
	query := map[string]any{
		"sort": []any{
			map[string]any{"_score": map[string]any{"order": "desc"}},
		},
		"_source": map[string]any{
			"includes": []string{"text", "answer", "profile"},
		},
		"size": listSamplesSize,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"match_all": map[string]any{}},
					map[string]any{"match_phrase": map[string]any{"profile": profile}},
				},
			},
		},
	}

	return c.search(ctx, index, query)
}

func (c *Connector) DeleteSample(ctx context.Context, index, id string) error {
	res, err := opensearchapi.DeleteRequest{Index: index, DocumentID: id, Refresh: "true"}.Do(ctx, c.client)
	if err != nil {
		return &pkghttp.NetworkError{Err: err}
	}
	defer res.Body.Close()

	if isNotFound(res) {
		return fmt.Errorf("delete sample %s: %w", id, entity.ErrSampleNotFound)
	}
	if res.IsError() {
		return fmt.Errorf("delete sample %s: %w", id, responseError(res))
	}

	ctxzap.Info(ctx, "sample deleted", zap.String("index", index), zap.String("id", id))

	return nil
}
