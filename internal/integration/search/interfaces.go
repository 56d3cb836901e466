package search

import "context"

// Embedder turns query text into a vector for SearchText and AddSample.
type Embedder interface {
	Embed(ctx context.Context, text string, dimensions int, normalize bool) ([]float64, error)
}
