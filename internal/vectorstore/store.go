// Package vectorstore persists embeddings and their provenance metadata
// as two parallel, position-aligned collections. List position is the
// only key: vectors[i] belongs to metadata[i], always.
package vectorstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	vectorsFile  = "vectors.bin"
	metadataFile = "metadata.json"
)

// Metadata is the provenance record stored alongside each embedding.
type Metadata struct {
	Filename    string `json:"filename"`
	Type        string `json:"type"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	// ArticleIndex orders articles within a news file; -1 for tabular
	// records.
	ArticleIndex int    `json:"article_index"`
	Title        string `json:"title,omitempty"`
	TextContent  string `json:"text_content"`
	TextLength   int    `json:"text_length"`
	// EmbeddingDegraded marks records whose vector is a fail-soft zero
	// placeholder rather than a real embedding.
	EmbeddingDegraded bool   `json:"embedding_degraded,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// Store holds the in-memory collections for one store instance. It is
// append-only between saves; the search path never mutates it.
type Store struct {
	dir string
	dim int

	mu       sync.RWMutex
	vectors  [][]float32
	metadata []Metadata
}

// Open creates a Store bound to a directory. No I/O happens until Load
// or Save.
func Open(dir string, dim int) *Store {
	return &Store{dir: dir, dim: dim}
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// Dimension returns the fixed vector dimension.
func (s *Store) Dimension() int { return s.dim }

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Append adds one record. The vector must have the store's dimension.
func (s *Store) Append(vec []float32, md Metadata) error {
	if len(vec) != s.dim {
		return fmt.Errorf("vector dimension %d, store requires %d", len(vec), s.dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = append(s.vectors, vec)
	s.metadata = append(s.metadata, md)
	return nil
}

// Clear drops all in-memory records. Used by rebuild before processing
// so the persisted result replaces rather than extends prior state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.metadata = nil
}

// Snapshot returns copies of the slice headers for read-only iteration.
// The underlying vectors and metadata values are shared and must not be
// mutated by callers.
func (s *Store) Snapshot() ([][]float32, []Metadata) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vecs := make([][]float32, len(s.vectors))
	copy(vecs, s.vectors)
	meta := make([]Metadata, len(s.metadata))
	copy(meta, s.metadata)
	return vecs, meta
}

// MetadataAt returns the metadata at position i.
func (s *Store) MetadataAt(i int) (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.metadata) {
		return Metadata{}, fmt.Errorf("index %d out of range [0,%d)", i, len(s.metadata))
	}
	return s.metadata[i], nil
}

// Load reads both persisted artifacts. When neither exists the store
// loads empty (a fresh deployment, not an error). When exactly one
// exists the state is partial or corrupt and Load fails loudly rather
// than silently substituting empty collections.
func (s *Store) Load() error {
	vecPath := filepath.Join(s.dir, vectorsFile)
	metaPath := filepath.Join(s.dir, metadataFile)

	vecExists := fileExists(vecPath)
	metaExists := fileExists(metaPath)

	switch {
	case !vecExists && !metaExists:
		s.mu.Lock()
		s.vectors, s.metadata = nil, nil
		s.mu.Unlock()
		return nil
	case vecExists != metaExists:
		return fmt.Errorf("partial store state in %s: vectors present=%v, metadata present=%v", s.dir, vecExists, metaExists)
	}

	vectors, err := readVectors(vecPath, s.dim)
	if err != nil {
		return err
	}
	metadata, err := readMetadata(metaPath)
	if err != nil {
		return err
	}

	if len(vectors) != len(metadata) {
		return fmt.Errorf("store integrity failure in %s: %d vectors but %d metadata entries", s.dir, len(vectors), len(metadata))
	}

	s.mu.Lock()
	s.vectors, s.metadata = vectors, metadata
	s.mu.Unlock()
	return nil
}

// Save persists the full collections, replacing both artifacts. Writes
// go through temp files so a crash cannot leave a torn artifact behind.
func (s *Store) Save() error {
	s.mu.RLock()
	vectors := s.vectors
	metadata := s.metadata
	s.mu.RUnlock()

	if len(vectors) != len(metadata) {
		return fmt.Errorf("refusing to save: %d vectors but %d metadata entries", len(vectors), len(metadata))
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating store dir %s: %w", s.dir, err)
	}

	if err := writeVectors(filepath.Join(s.dir, vectorsFile), vectors, s.dim); err != nil {
		return err
	}
	if err := writeMetadata(filepath.Join(s.dir, metadataFile), metadata); err != nil {
		return err
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
