package embeddings

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jhpark-dev/stockrag/internal/progress"
)

// PacedEmbedder wraps an Embedder with a fixed inter-request delay. The
// delay is unconditional: it does not adapt to observed latency or error
// rate, it just keeps the request rate under the service's limit.
//
// Progress is reported against a caller-supplied expected total, since
// with tens of seconds per call the delay dominates wall-clock time.
type PacedEmbedder struct {
	inner    Embedder
	limiter  *rate.Limiter
	reporter progress.Reporter

	mu        sync.Mutex
	expected  int
	completed int
}

// NewPacedEmbedder wraps inner so that at most one request is issued per
// delay interval. reporter may be nil.
func NewPacedEmbedder(inner Embedder, delay rate.Limit, reporter progress.Reporter) *PacedEmbedder {
	if reporter == nil {
		reporter = progress.NopReporter{}
	}
	return &PacedEmbedder{
		inner:    inner,
		limiter:  rate.NewLimiter(delay, 1),
		reporter: reporter,
	}
}

// SetExpectedTotal announces how many single-text embedding calls the
// caller is about to make, resetting the progress counter.
func (p *PacedEmbedder) SetExpectedTotal(n int) {
	p.mu.Lock()
	p.expected = n
	p.completed = 0
	p.mu.Unlock()
	p.reporter.Start(n)
}

func (p *PacedEmbedder) Name() string    { return p.inner.Name() }
func (p *PacedEmbedder) Dimensions() int { return p.inner.Dimensions() }

// Embed paces each text individually: wait, call, report.
func (p *PacedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		vecs, err := p.inner.Embed(ctx, []string{text})
		p.advance()
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("embedder returned %d vectors for one text", len(vecs))
		}
		results = append(results, vecs[0])
	}
	return results, nil
}

func (p *PacedEmbedder) advance() {
	p.mu.Lock()
	p.completed++
	completed, expected := p.completed, p.expected
	p.mu.Unlock()

	if expected > 0 {
		p.reporter.Update(completed, fmt.Sprintf("embedded %d/%d", completed, expected))
		if completed >= expected {
			p.reporter.Finish()
		}
	}
}
