package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type memoryIndex struct {
	mapped bool
	docs   map[string]entity.Sample
	order  []string
}

// MemoryStore is an in-process vector index with the same semantics as the
// OpenSearch connector: exact profile filter, cosine similarity scoring.
type MemoryStore struct {
	mu        sync.RWMutex
	indices   map[string]*memoryIndex
	embedder  Embedder
	dimension int
	logger    *zap.Logger
}

func NewMemoryStore(embedder Embedder, dimension int, logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		indices:   make(map[string]*memoryIndex),
		embedder:  embedder,
		dimension: dimension,
		logger:    logger,
	}
}

func (m *MemoryStore) Search(ctx context.Context, profile string, topK int, index string, vector []float64) ([]entity.SearchMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.indices[index]
	if !ok {
		return nil, fmt.Errorf("search index %s: %w", index, entity.ErrIndexNotFound)
	}

	matches := make([]entity.SearchMatch, 0, len(idx.docs))
	for _, id := range idx.order {
		doc := idx.docs[id]
		if doc.Profile != profile {
			continue
		}
		if len(doc.Vector) != len(vector) {
			return nil, fmt.Errorf("%w: document %s has %d, query has %d", entity.ErrDimensionMismatch, id, len(doc.Vector), len(vector))
		}
		matches = append(matches, entity.SearchMatch{
			ID:     id,
			Score:  cosineScore(doc.Vector, vector),
			Source: entity.SampleSource{Text: doc.Text, Answer: doc.Answer, Profile: doc.Profile},
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	ctxzap.Debug(ctx, "[MEMORY] vector search completed", zap.String("index", index), zap.Int("match_count", len(matches)))

	return matches, nil
}

func (m *MemoryStore) SearchText(ctx context.Context, profile string, topK int, index, text string) ([]entity.SearchMatch, error) {
	vector, err := m.embedder.Embed(ctx, text, m.dimension, true)
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}
	return m.Search(ctx, profile, topK, index, vector)
}

func (m *MemoryStore) IndexExists(_ context.Context, index string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.indices[index]
	return ok, nil
}

func (m *MemoryStore) CreateIndex(_ context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.indices[index]; ok {
		return fmt.Errorf("create index %s: %w", index, entity.ErrIndexExists)
	}
	m.indices[index] = &memoryIndex{mapped: true, docs: make(map[string]entity.Sample)}
	return nil
}

func (m *MemoryStore) PutMapping(_ context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.indices[index]
	if !ok {
		return fmt.Errorf("put mapping %s: %w", index, entity.ErrIndexNotFound)
	}
	idx.mapped = true
	return nil
}

func (m *MemoryStore) EnsureIndex(ctx context.Context, index string) error {
	exists, err := m.IndexExists(ctx, index)
	if err != nil || exists {
		return err
	}
	return m.CreateIndex(ctx, index)
}

func (m *MemoryStore) DeleteIndex(_ context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.indices, index)
	return nil
}

// BulkInsert creates missing indices on the fly, as OpenSearch does with
// dynamic index creation.
func (m *MemoryStore) BulkInsert(_ context.Context, samples []entity.Sample) (entity.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result entity.BulkResult
	for i := range samples {
		if samples[i].ID == "" {
			samples[i].ID = uuid.NewString()
		}
		s := samples[i]

		if m.dimension > 0 && len(s.Vector) != m.dimension {
			result.Failed++
			continue
		}

		idx, ok := m.indices[s.Index]
		if !ok {
			idx = &memoryIndex{docs: make(map[string]entity.Sample)}
			m.indices[s.Index] = idx
		}
		if _, exists := idx.docs[s.ID]; !exists {
			idx.order = append(idx.order, s.ID)
		}
		idx.docs[s.ID] = s
		result.Succeeded++
	}

	return result, nil
}

func (m *MemoryStore) AddSample(ctx context.Context, sample entity.Sample) (string, error) {
	if sample.Text == "" || sample.Answer == "" || sample.Profile == "" {
		return "", fmt.Errorf("%w: text, answer and profile are required", entity.ErrMissingField)
	}

	if len(sample.Vector) == 0 {
		vector, err := m.embedder.Embed(ctx, sample.Text, m.dimension, true)
		if err != nil {
			return "", fmt.Errorf("embed sample text: %w", err)
		}
		sample.Vector = vector
	}

	samples := []entity.Sample{sample}
	result, err := m.BulkInsert(ctx, samples)
	if err != nil {
		return "", err
	}
	if result.Succeeded != 1 {
		return "", fmt.Errorf("add sample: %w", entity.ErrDimensionMismatch)
	}
	return samples[0].ID, nil
}

func (m *MemoryStore) ListSamples(_ context.Context, index, profile string) ([]entity.SearchMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.indices[index]
	if !ok {
		return nil, fmt.Errorf("list samples %s: %w", index, entity.ErrIndexNotFound)
	}

	var matches []entity.SearchMatch
	for _, id := range idx.order {
		doc := idx.docs[id]
		if doc.Profile != profile {
			continue
		}
		matches = append(matches, entity.SearchMatch{
			ID:     id,
			Score:  1,
			Source: entity.SampleSource{Text: doc.Text, Answer: doc.Answer, Profile: doc.Profile},
		})
		if len(matches) == listSamplesSize {
			break
		}
	}
	return matches, nil
}

func (m *MemoryStore) DeleteSample(_ context.Context, index, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.indices[index]
	if !ok {
		return fmt.Errorf("delete sample %s: %w", id, entity.ErrIndexNotFound)
	}
	if _, ok := idx.docs[id]; !ok {
		return fmt.Errorf("delete sample %s: %w", id, entity.ErrSampleNotFound)
	}

	delete(idx.docs, id)
	for i, docID := range idx.order {
		if docID == id {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
	return nil
}

// cosineScore mirrors the k-NN plugin's cosinesimil scoring: (1 + cos) / 2.
func cosineScore(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return (1 + dot/(math.Sqrt(na)*math.Sqrt(nb))) / 2
}
