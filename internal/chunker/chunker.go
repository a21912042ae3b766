// Package chunker splits normalized document text into bounded-length
// chunks. The primary path asks the CLOVA segmentation service for topic
// boundaries; on any failure it falls back to a deterministic local
// word-packing split.
package chunker

import (
	"context"
	"log"
	"strings"
)

// Chunk is one bounded-length segment of a normalized document.
type Chunk struct {
	SourceID string
	Index    int
	Total    int
	Text     string
	// Length is the chunk's size in characters (runes, not bytes;
	// the corpus is mostly Korean).
	Length int
}

// Segmenter determines topic boundaries for a text under a maximum
// post-processing size. Implementations may return zero segments.
type Segmenter interface {
	Segment(ctx context.Context, text string, maxLen int) ([]string, error)
}

// Chunker produces chunks via a Segmenter with a local fallback.
type Chunker struct {
	seg Segmenter
}

// New creates a Chunker. seg may be nil, in which case only the local
// fallback is used.
func New(seg Segmenter) *Chunker {
	return &Chunker{seg: seg}
}

// Split divides text into chunks of at most maxLen characters each
// (the remote path may exceed the bound; see below). Empty or
// whitespace-only input yields no chunks and no error; callers treat
// that as nothing to embed.
//
// Segments returned by the remote service are trusted as-is and not
// re-clipped locally; the Length field lets consumers detect oversize
// chunks.
func (c *Chunker) Split(ctx context.Context, sourceID, text string, maxLen int) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var parts []string
	if c.seg != nil {
		segments, err := c.seg.Segment(ctx, text, maxLen)
		switch {
		case err != nil:
			log.Printf("segmentation failed for %s, using local fallback: %v", sourceID, err)
		case len(segments) == 0:
			log.Printf("segmentation returned no segments for %s, using local fallback", sourceID)
		default:
			parts = segments
		}
	}
	if parts == nil {
		parts = FallbackSplit(text, maxLen)
	}

	chunks := make([]Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, Chunk{
			SourceID: sourceID,
			Index:    i,
			Total:    len(parts),
			Text:     p,
			Length:   len([]rune(p)),
		})
	}
	return chunks
}

// FallbackSplit splits text on whitespace and greedily packs words into
// chunks while the running character count (each word plus one
// separator) stays at or below maxLen. An overflowing word closes the
// current chunk and starts the next one, so a single word longer than
// maxLen still lands in a chunk of its own.
//
// Joining the returned chunks with spaces reconstructs the input's word
// sequence with no loss; this is the only path with that guarantee.
func FallbackSplit(text string, maxLen int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, word := range words {
		wordLen := len([]rune(word)) + 1 // +1 for the separator
		if currentLen+wordLen > maxLen && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{word}
			currentLen = wordLen
		} else {
			current = append(current, word)
			currentLen += wordLen
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
