package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func clovaServer(t *testing.T, dims int, statusCode string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != clovaEmbedPath {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("missing Authorization header")
		}
		if r.Header.Get("X-NCP-CLOVASTUDIO-REQUEST-ID") == "" {
			t.Error("missing request id header")
		}

		var req clovaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		emb := make([]float32, dims)
		for i := range emb {
			emb[i] = 0.5
		}
		resp := clovaEmbedResponse{Status: clovaStatus{Code: statusCode, Message: "test"}}
		resp.Result.Embedding = emb
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClovaEmbedderSuccess(t *testing.T) {
	srv := clovaServer(t, 1024, clovaStatusOK)
	defer srv.Close()

	e := NewClovaEmbedder(srv.URL, "Bearer test", "req-id", 1024)
	vecs, err := e.Embed(context.Background(), []string{"삼성전자 주가", "거래대금"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	for _, v := range vecs {
		if len(v) != 1024 {
			t.Errorf("vector dimension = %d, want 1024", len(v))
		}
	}
}

func TestClovaEmbedderServiceErrorCode(t *testing.T) {
	srv := clovaServer(t, 1024, "42901")
	defer srv.Close()

	e := NewClovaEmbedder(srv.URL, "Bearer test", "req-id", 1024)
	if _, err := e.Embed(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error for non-success status code")
	}
}

func TestClovaEmbedderWrongDimension(t *testing.T) {
	srv := clovaServer(t, 8, clovaStatusOK)
	defer srv.Close()

	e := NewClovaEmbedder(srv.URL, "Bearer test", "req-id", 1024)
	if _, err := e.Embed(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error for wrong-length embedding")
	}
}

func TestClovaEmbedderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewClovaEmbedder(srv.URL, "Bearer test", "req-id", 1024)
	if _, err := e.Embed(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error for HTTP 429")
	}
}

// failingEmbedder always errors, for exercising the fail-soft wrapper.
type failingEmbedder struct{ dims int }

func (f *failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("service down")
}
func (f *failingEmbedder) Dimensions() int { return f.dims }
func (f *failingEmbedder) Name() string    { return "failing" }

// constEmbedder returns a fixed vector for every text.
type constEmbedder struct {
	vec   []float32
	calls int
}

func (c *constEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.calls += len(texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = c.vec
	}
	return out, nil
}
func (c *constEmbedder) Dimensions() int { return len(c.vec) }
func (c *constEmbedder) Name() string    { return "const" }

func TestFailSoftSubstitutesZeroVector(t *testing.T) {
	fs := NewFailSoft(&failingEmbedder{dims: 1024})

	vec, degraded := fs.EmbedOne(context.Background(), "anything")
	if !degraded {
		t.Error("degraded = false, want true")
	}
	if len(vec) != 1024 {
		t.Fatalf("vector dimension = %d, want 1024", len(vec))
	}
	if !IsZero(vec) {
		t.Error("fail-soft vector has non-zero elements")
	}
}

func TestFailSoftPassesThroughSuccess(t *testing.T) {
	fs := NewFailSoft(&constEmbedder{vec: []float32{1, 0, 0}})

	vec, degraded := fs.EmbedOne(context.Background(), "ok")
	if degraded {
		t.Error("degraded = true for successful embed")
	}
	if IsZero(vec) {
		t.Error("expected non-zero vector")
	}
}

func TestPacedEmbedderPreservesOrderAndCount(t *testing.T) {
	inner := &constEmbedder{vec: []float32{1, 2}}
	// rate.Inf so the test does not actually sleep.
	p := NewPacedEmbedder(inner, rate.Inf, nil)
	p.SetExpectedTotal(3)

	vecs, err := p.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3 single-text calls", inner.calls)
	}
}

func TestPacedEmbedderContextCancel(t *testing.T) {
	inner := &constEmbedder{vec: []float32{1}}
	p := NewPacedEmbedder(inner, rate.Every(time.Hour), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Embed(ctx, []string{"a", "b"}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestIsZero(t *testing.T) {
	if !IsZero(ZeroVector(4)) {
		t.Error("ZeroVector should be zero")
	}
	if IsZero([]float32{0, 0, 0.1}) {
		t.Error("non-zero vector reported zero")
	}
}
