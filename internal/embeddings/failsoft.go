package embeddings

import (
	"context"
	"log"
)

// FailSoft wraps an Embedder so that failures never propagate: any error
// yields a zero vector of the configured dimension plus a degraded flag.
// This keeps a multi-hour ingestion run alive through transient service
// trouble at the cost of storing semantically meaningless vectors; the
// flag is persisted so downstream consumers can exclude degraded records.
type FailSoft struct {
	inner Embedder
}

// NewFailSoft wraps inner with the fail-soft policy.
func NewFailSoft(inner Embedder) *FailSoft {
	return &FailSoft{inner: inner}
}

func (f *FailSoft) Name() string    { return f.inner.Name() }
func (f *FailSoft) Dimensions() int { return f.inner.Dimensions() }

// EmbedOne embeds a single text. degraded is true when the underlying
// call failed and the zero placeholder was substituted.
func (f *FailSoft) EmbedOne(ctx context.Context, text string) (vec []float32, degraded bool) {
	vecs, err := f.inner.Embed(ctx, []string{text})
	if err != nil {
		log.Printf("embedding failed, storing zero vector: %v", err)
		return ZeroVector(f.inner.Dimensions()), true
	}
	if len(vecs) != 1 || len(vecs[0]) != f.inner.Dimensions() {
		log.Printf("embedding returned unexpected shape, storing zero vector")
		return ZeroVector(f.inner.Dimensions()), true
	}
	return vecs[0], false
}
