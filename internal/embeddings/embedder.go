package embeddings

import "context"

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts, preserving order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding provider.
	Name() string
}

// ZeroVector returns an all-zero vector of the given dimension. It is the
// fail-soft placeholder stored when an embedding call cannot be completed.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// IsZero reports whether every element of vec is zero.
func IsZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
