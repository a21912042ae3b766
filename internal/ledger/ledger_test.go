package ledger

import "testing"

func TestChunkHashStable(t *testing.T) {
	a := ChunkHash("krx.csv", 0, "text")
	b := ChunkHash("krx.csv", 0, "text")
	if a != b {
		t.Error("identical inputs hashed differently")
	}
	if ChunkHash("krx.csv", 1, "text") == a {
		t.Error("chunk index not part of the hash")
	}
	if ChunkHash("other.csv", 0, "text") == a {
		t.Error("filename not part of the hash")
	}
	if ChunkHash("krx.csv", 0, "other") == a {
		t.Error("text not part of the hash")
	}
}

func TestSeenAndRecordChunk(t *testing.T) {
	l, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer l.Close()

	hash := ChunkHash("krx.csv", 0, "text")

	seen, err := l.SeenChunk(hash)
	if err != nil {
		t.Fatalf("SeenChunk: %v", err)
	}
	if seen {
		t.Error("fresh ledger reports chunk as seen")
	}

	if err := l.RecordChunk(hash, "krx.csv", 0); err != nil {
		t.Fatalf("RecordChunk: %v", err)
	}
	// Recording twice must not error.
	if err := l.RecordChunk(hash, "krx.csv", 0); err != nil {
		t.Fatalf("duplicate RecordChunk: %v", err)
	}

	seen, err = l.SeenChunk(hash)
	if err != nil {
		t.Fatalf("SeenChunk: %v", err)
	}
	if !seen {
		t.Error("recorded chunk not reported as seen")
	}
}

func TestBatchLifecycle(t *testing.T) {
	l, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer l.Close()

	id, err := l.StartBatch("daily")
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	if id == "" {
		t.Fatal("empty batch id")
	}

	err = l.FinishBatch(id, BatchStats{Documents: 2, Chunks: 10, Embedded: 9, Degraded: 1})
	if err != nil {
		t.Fatalf("FinishBatch: %v", err)
	}

	var embedded, degraded int
	var finished string
	row := l.db.QueryRow(`SELECT embedded, degraded, finished_at FROM batches WHERE id = ?`, id)
	if err := row.Scan(&embedded, &degraded, &finished); err != nil {
		t.Fatalf("reading batch row: %v", err)
	}
	if embedded != 9 || degraded != 1 {
		t.Errorf("embedded/degraded = %d/%d, want 9/1", embedded, degraded)
	}
	if finished == "" {
		t.Error("finished_at not set")
	}
}
