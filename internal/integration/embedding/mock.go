package embedding

import (
	"context"
	"hash/fnv"
	"math/rand"
)

// MockConnector returns deterministic vectors seeded by the text, so equal
// texts embed to equal vectors.
type MockConnector struct{}

func NewMockConnector() *MockConnector {
	return &MockConnector{}
}

func (m *MockConnector) Embed(_ context.Context, text string, dimensions int, normalize bool) ([]float64, error) {
	if err := validateInput(text, dimensions); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vector := make([]float64, dimensions)
	for i := range vector {
		vector[i] = rng.Float64()*2 - 1
	}
	if normalize {
		Normalize(vector)
	}

	return vector, nil
}
