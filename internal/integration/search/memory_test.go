package search

import (
	"context"
	"testing"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/integration/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryStore_ProfilePartition(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(embedding.NewMockConnector(), 256, zap.NewNop())
	require.NoError(t, store.EnsureIndex(ctx, "text_neptune"))

	for _, s := range []entity.Sample{
		{Index: "text_neptune", Profile: "profile1", Text: "Who is Zhang Kun?", Answer: "Zhang Kun manages three funds."},
		{Index: "text_neptune", Profile: "profile2", Text: "Who is Zhang Kun?", Answer: "profile2 answer"},
		{Index: "text_neptune", Profile: "profile2", Text: "Another question", Answer: "profile2 other"},
	} {
		_, err := store.AddSample(ctx, s)
		require.NoError(t, err)
	}

	matches, err := store.SearchText(ctx, "profile1", 10, "text_neptune", "Who is Zhang Kun?")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	for _, m := range matches {
		assert.Equal(t, "profile1", m.Source.Profile)
	}
	assert.Equal(t, "Zhang Kun manages three funds.", matches[0].Source.Answer)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)

	matches, err = store.SearchText(ctx, "profile2", 1, "text_neptune", "Who is Zhang Kun?")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "profile2 answer", matches[0].Source.Answer)

	matches, err = store.SearchText(ctx, "profile3", 1, "text_neptune", "Who is Zhang Kun?")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStore_EnsureIndexTwice(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(embedding.NewMockConnector(), 256, zap.NewNop())

	for i := 0; i < 2; i++ {
		require.NoError(t, store.EnsureIndex(ctx, "text_neptune"))
		exists, err := store.IndexExists(ctx, "text_neptune")
		require.NoError(t, err)
		assert.True(t, exists)
	}

	assert.ErrorIs(t, store.CreateIndex(ctx, "text_neptune"), entity.ErrIndexExists)
	require.NoError(t, store.DeleteIndex(ctx, "text_neptune"))
	require.NoError(t, store.DeleteIndex(ctx, "text_neptune"))

	_, err := store.Search(ctx, "profile1", 1, "text_neptune", make([]float64, 256))
	assert.ErrorIs(t, err, entity.ErrIndexNotFound)
}

func TestMemoryStore_SamplesLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(embedding.NewMockConnector(), 256, zap.NewNop())
	require.NoError(t, store.EnsureIndex(ctx, "text_neptune"))

	id, err := store.AddSample(ctx, entity.Sample{Index: "text_neptune", Profile: "profile1", Text: "q", Answer: "a"})
	require.NoError(t, err)

	samples, err := store.ListSamples(ctx, "text_neptune", "profile1")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, id, samples[0].ID)

	require.NoError(t, store.DeleteSample(ctx, "text_neptune", id))
	assert.ErrorIs(t, store.DeleteSample(ctx, "text_neptune", id), entity.ErrSampleNotFound)

	samples, err = store.ListSamples(ctx, "text_neptune", "profile1")
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestMemoryStore_BulkRejectsWrongDimension(t *testing.T) {
	store := NewMemoryStore(embedding.NewMockConnector(), 4, zap.NewNop())

	result, err := store.BulkInsert(context.Background(), []entity.Sample{
		{Index: "i", Profile: "p", Text: "t", Answer: "a", Vector: []float64{1, 0, 0, 0}},
		{Index: "i", Profile: "p", Text: "t", Answer: "a", Vector: []float64{1, 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.BulkResult{Succeeded: 1, Failed: 1}, result)
}
