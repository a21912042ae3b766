// Package index builds an exact nearest-neighbor structure over a
// vector store snapshot and answers top-k queries.
//
// Scoring convention: cosine similarity, higher is better, applied
// uniformly to every store instance. Construction is build-only; a
// store mutation requires a full rebuild to be reflected.
package index

import (
	"context"
	"fmt"
	"log"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/jhpark-dev/stockrag/internal/embeddings"
	"github.com/jhpark-dev/stockrag/internal/vectorstore"
)

const collectionName = "records"

// Result is one ranked match. Rank starts at 1.
type Result struct {
	Rank       int
	Position   int
	Similarity float32
	Meta       vectorstore.Metadata
}

// Index is an immutable exact-search structure. Safe for concurrent
// queries without synchronization once built.
type Index struct {
	collection *chromem.Collection
	meta       []vectorstore.Metadata
	size       int
	skipped    int
}

// Build constructs an index from the store's current contents. Records
// whose vector is a fail-soft zero placeholder are excluded: cosine
// similarity against a zero vector is undefined, and a degraded record
// can never be a meaningful match.
func Build(ctx context.Context, store *vectorstore.Store) (*Index, error) {
	vectors, metadata := store.Snapshot()

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	idx := &Index{collection: collection, meta: metadata}

	var docs []chromem.Document
	for i, vec := range vectors {
		if metadata[i].EmbeddingDegraded || embeddings.IsZero(vec) {
			idx.skipped++
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   metadata[i].TextContent,
			Embedding: vec,
		})
	}

	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, 1); err != nil {
			return nil, fmt.Errorf("indexing %d vectors: %w", len(docs), err)
		}
	}
	idx.size = len(docs)

	if idx.skipped > 0 {
		log.Printf("index built with %d vectors, %d degraded records excluded", idx.size, idx.skipped)
	}
	return idx, nil
}

// Size returns the number of indexed vectors.
func (idx *Index) Size() int { return idx.size }

// SkippedDegraded returns how many degraded records were excluded at
// build time.
func (idx *Index) SkippedDegraded() int { return idx.skipped }

// Query returns up to topK matches ranked by descending similarity.
// topK is clamped to the index size; an empty index yields empty
// results, not an error.
func (idx *Index) Query(ctx context.Context, queryVec []float32, topK int) ([]Result, error) {
	if topK <= 0 || idx.size == 0 {
		return nil, nil
	}
	if topK > idx.size {
		topK = idx.size
	}

	matches, err := idx.collection.QueryEmbedding(ctx, queryVec, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for i, m := range matches {
		pos, err := strconv.Atoi(m.ID)
		if err != nil || pos < 0 || pos >= len(idx.meta) {
			return nil, fmt.Errorf("index returned unknown record id %q", m.ID)
		}
		results = append(results, Result{
			Rank:       i + 1,
			Position:   pos,
			Similarity: m.Similarity,
			Meta:       idx.meta[pos],
		})
	}
	return results, nil
}
