package index

import (
	"context"
	"testing"
	"time"

	"github.com/jhpark-dev/stockrag/internal/vectorstore"
)

func buildStore(t *testing.T, dim int, vecs [][]float32, degraded []bool) *vectorstore.Store {
	t.Helper()
	s := vectorstore.Open(t.TempDir(), dim)
	for i, v := range vecs {
		md := vectorstore.Metadata{
			Filename:     "doc.csv",
			Type:         "csv",
			ChunkIndex:   i,
			TotalChunks:  len(vecs),
			ArticleIndex: -1,
			TextContent:  "chunk",
			CreatedAt:    time.Now().Format(time.RFC3339),
		}
		if degraded != nil {
			md.EmbeddingDegraded = degraded[i]
		}
		if err := s.Append(v, md); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestQueryRanksByInnerProduct(t *testing.T) {
	ctx := context.Background()
	store := buildStore(t, 2, [][]float32{
		{1, 0},
		{0, 1},
	}, nil)

	idx, err := Build(ctx, store)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Size() != 2 {
		t.Fatalf("Size = %d, want 2", idx.Size())
	}

	results, err := idx.Query(ctx, []float32{0.9, 0.1}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Position != 0 {
		t.Errorf("top result position = %d, want 0 ([1,0] is closer to [0.9,0.1])", results[0].Position)
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("ranks = %d,%d, want 1,2", results[0].Rank, results[1].Rank)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not ordered by descending similarity")
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	ctx := context.Background()
	idx, err := Build(ctx, buildStore(t, 2, nil, nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	results, err := idx.Query(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Query on empty index: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty index", len(results))
	}
}

func TestQueryClampsTopK(t *testing.T) {
	ctx := context.Background()
	store := buildStore(t, 2, [][]float32{
		{1, 0},
		{0, 1},
		{0.7, 0.7},
	}, nil)

	idx, err := Build(ctx, store)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	results, err := idx.Query(ctx, []float32{1, 0}, 50)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want store size 3", len(results))
	}
}

func TestBuildExcludesDegraded(t *testing.T) {
	ctx := context.Background()
	store := buildStore(t, 2,
		[][]float32{{1, 0}, {0, 0}, {0, 1}},
		[]bool{false, true, false},
	)

	idx, err := Build(ctx, store)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Size() != 2 {
		t.Errorf("Size = %d, want 2 (degraded excluded)", idx.Size())
	}
	if idx.SkippedDegraded() != 1 {
		t.Errorf("SkippedDegraded = %d, want 1", idx.SkippedDegraded())
	}

	results, err := idx.Query(ctx, []float32{0.5, 0.5}, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, r := range results {
		if r.Position == 1 {
			t.Error("degraded record surfaced in results")
		}
	}
}

func TestBuildExcludesUnflaggedZeroVector(t *testing.T) {
	// A zero vector without the degraded flag (e.g. written by an older
	// pipeline) must still be excluded.
	ctx := context.Background()
	store := buildStore(t, 2, [][]float32{{0, 0}, {1, 0}}, nil)

	idx, err := Build(ctx, store)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Size() != 1 {
		t.Errorf("Size = %d, want 1", idx.Size())
	}
}

func TestQueryMetadataFollowsPosition(t *testing.T) {
	ctx := context.Background()
	store := buildStore(t, 2, [][]float32{{1, 0}, {0, 1}}, nil)

	idx, err := Build(ctx, store)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	results, err := idx.Query(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Meta.ChunkIndex != results[0].Position {
		t.Errorf("metadata misaligned: position %d, chunk index %d", results[0].Position, results[0].Meta.ChunkIndex)
	}
}
