// Package ledger records ingestion history in SQLite: one row per
// batch, and one row per ingested chunk keyed by content hash so that
// re-ingestion can optionally skip chunks it has already embedded.
package ledger

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Ledger wraps a SQLite database holding ingestion history.
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the ledger database at the given path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}
	return l, nil
}

// OpenMemory creates an in-memory ledger (useful for testing).
func OpenMemory() (*Ledger, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory ledger: %w", err)
	}
	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }

func (l *Ledger) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS batches (
			id          TEXT PRIMARY KEY,
			store       TEXT NOT NULL,
			started_at  TEXT NOT NULL,
			finished_at TEXT,
			documents   INTEGER NOT NULL DEFAULT 0,
			chunks      INTEGER NOT NULL DEFAULT 0,
			embedded    INTEGER NOT NULL DEFAULT 0,
			degraded    INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS chunks (
			hash        TEXT PRIMARY KEY,
			filename    TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			created_at  TEXT NOT NULL
		);
	`)
	return err
}

// ChunkHash derives the dedupe key for a chunk from its source id,
// position, and text.
func ChunkHash(filename string, chunkIndex int, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s", filename, chunkIndex, text)
	return hex.EncodeToString(h.Sum(nil))
}

// SeenChunk reports whether a chunk hash was recorded by a prior batch.
func (l *Ledger) SeenChunk(hash string) (bool, error) {
	var one int
	err := l.db.QueryRow(`SELECT 1 FROM chunks WHERE hash = ?`, hash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying chunk hash: %w", err)
	}
	return true, nil
}

// RecordChunk stores a chunk hash. Recording the same hash twice is not
// an error.
func (l *Ledger) RecordChunk(hash, filename string, chunkIndex int) error {
	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO chunks (hash, filename, chunk_index, created_at) VALUES (?, ?, ?, ?)`,
		hash, filename, chunkIndex, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording chunk: %w", err)
	}
	return nil
}

// BatchStats summarizes one ingestion run.
type BatchStats struct {
	Documents int
	Chunks    int
	Embedded  int
	Degraded  int
}

// StartBatch opens a batch row and returns its id.
func (l *Ledger) StartBatch(store string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.Exec(
		`INSERT INTO batches (id, store, started_at) VALUES (?, ?, ?)`,
		id, store, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("starting batch: %w", err)
	}
	return id, nil
}

// FinishBatch closes a batch row with its final counts.
func (l *Ledger) FinishBatch(id string, stats BatchStats) error {
	_, err := l.db.Exec(
		`UPDATE batches SET finished_at = ?, documents = ?, chunks = ?, embedded = ?, degraded = ? WHERE id = ?`,
		time.Now().Format(time.RFC3339), stats.Documents, stats.Chunks, stats.Embedded, stats.Degraded, id,
	)
	if err != nil {
		return fmt.Errorf("finishing batch: %w", err)
	}
	return nil
}
