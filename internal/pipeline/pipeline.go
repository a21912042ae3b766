// Package pipeline orchestrates ingestion: discover documents,
// normalize, chunk, embed, append to the vector store, persist.
// Everything runs strictly sequentially: the embedding service is
// called with a mandatory fixed delay between requests, so there is
// nothing to gain from concurrency.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jhpark-dev/stockrag/internal/chunker"
	"github.com/jhpark-dev/stockrag/internal/config"
	"github.com/jhpark-dev/stockrag/internal/embeddings"
	"github.com/jhpark-dev/stockrag/internal/ledger"
	"github.com/jhpark-dev/stockrag/internal/sources"
	"github.com/jhpark-dev/stockrag/internal/vectorstore"
)

// Options control one ingestion run.
type Options struct {
	// Rebuild clears the store before processing, so the persisted
	// result replaces prior state instead of extending it. Without it
	// re-ingesting the same documents appends duplicate records.
	Rebuild bool
	// Dedupe skips chunks whose content hash the ledger has already
	// seen. Off by default to preserve plain append semantics.
	Dedupe bool
}

// Result summarizes one ingestion run.
type Result struct {
	Succeeded         bool
	BatchID           string
	Documents         int
	FailedDocuments   int
	Chunks            int
	Embedded          int
	Degraded          int
	DuplicatesSkipped int
}

// Pipeline wires the ingestion components for one store instance.
type Pipeline struct {
	storeName config.StoreName
	cfg       config.StoreConfig
	store     *vectorstore.Store
	chunker   *chunker.Chunker
	embedder  *embeddings.FailSoft
	paced     *embeddings.PacedEmbedder
	lgr       *ledger.Ledger
	extractor *sources.ContentExtractor
}

// New assembles a Pipeline. paced may be nil when the embedder is not
// paced (tests); lgr and extractor may be nil to disable the ledger and
// full-content extraction respectively.
func New(storeName config.StoreName, cfg config.StoreConfig, store *vectorstore.Store, ck *chunker.Chunker, embedder *embeddings.FailSoft, paced *embeddings.PacedEmbedder, lgr *ledger.Ledger, extractor *sources.ContentExtractor) *Pipeline {
	return &Pipeline{
		storeName: storeName,
		cfg:       cfg,
		store:     store,
		chunker:   ck,
		embedder:  embedder,
		paced:     paced,
		lgr:       lgr,
		extractor: extractor,
	}
}

// pendingChunk is a chunk waiting for its embedding, with the metadata
// it will be stored under.
type pendingChunk struct {
	chunk        chunker.Chunk
	sourceType   sources.SourceType
	title        string
	articleIndex int
}

// Run executes one ingestion batch. Per-document failures are logged
// and skipped; the batch continues. The store is persisted in full
// after all documents are processed.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}

	if opts.Rebuild {
		log.Printf("rebuild: clearing %s store", p.storeName)
		p.store.Clear()
	}

	if p.lgr != nil {
		id, err := p.lgr.StartBatch(string(p.storeName))
		if err != nil {
			return nil, err
		}
		res.BatchID = id
	}

	// Phase 1: normalize and chunk everything so the expected number of
	// embedding calls is known before the slow phase starts.
	pending := p.collectChunks(ctx, res)
	res.Chunks = len(pending)

	// Phase 2: embed sequentially under the fixed delay.
	if p.paced != nil {
		p.paced.SetExpectedTotal(len(pending))
	}
	for _, pc := range pending {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("ingestion interrupted: %w", err)
		}

		hash := ledger.ChunkHash(pc.chunk.SourceID, pc.chunk.Index, pc.chunk.Text)
		if opts.Dedupe && p.lgr != nil {
			seen, err := p.lgr.SeenChunk(hash)
			if err != nil {
				return res, err
			}
			if seen {
				res.DuplicatesSkipped++
				continue
			}
		}

		vec, degraded := p.embedder.EmbedOne(ctx, pc.chunk.Text)
		md := vectorstore.Metadata{
			Filename:          pc.chunk.SourceID,
			Type:              string(pc.sourceType),
			ChunkIndex:        pc.chunk.Index,
			TotalChunks:       pc.chunk.Total,
			ArticleIndex:      pc.articleIndex,
			Title:             pc.title,
			TextContent:       pc.chunk.Text,
			TextLength:        pc.chunk.Length,
			EmbeddingDegraded: degraded,
			CreatedAt:         time.Now().Format(time.RFC3339),
		}
		if err := p.store.Append(vec, md); err != nil {
			return res, fmt.Errorf("appending record: %w", err)
		}

		res.Embedded++
		if degraded {
			res.Degraded++
		}
		if p.lgr != nil {
			if err := p.lgr.RecordChunk(hash, pc.chunk.SourceID, pc.chunk.Index); err != nil {
				return res, err
			}
		}
	}

	if err := p.store.Save(); err != nil {
		return res, fmt.Errorf("persisting store: %w", err)
	}

	if p.lgr != nil {
		err := p.lgr.FinishBatch(res.BatchID, ledger.BatchStats{
			Documents: res.Documents,
			Chunks:    res.Chunks,
			Embedded:  res.Embedded,
			Degraded:  res.Degraded,
		})
		if err != nil {
			return res, err
		}
	}

	res.Succeeded = res.Documents > 0 && res.FailedDocuments < res.Documents
	log.Printf("%s ingestion: %d documents (%d failed), %d chunks, %d embedded, %d degraded, %d duplicates skipped",
		p.storeName, res.Documents, res.FailedDocuments, res.Chunks, res.Embedded, res.Degraded, res.DuplicatesSkipped)
	return res, nil
}

func (p *Pipeline) collectChunks(ctx context.Context, res *Result) []pendingChunk {
	var pending []pendingChunk

	tabularFiles, err := sources.Discover(p.cfg.DataDir, p.cfg.TabularGlobs)
	if err != nil {
		log.Printf("tabular discovery failed: %v", err)
	}
	for _, path := range tabularFiles {
		res.Documents++
		chunks, err := p.tabularChunks(ctx, path)
		if err != nil {
			res.FailedDocuments++
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		pending = append(pending, chunks...)
	}

	newsFiles, err := sources.Discover(p.cfg.DataDir, p.cfg.NewsGlobs)
	if err != nil {
		log.Printf("news discovery failed: %v", err)
	}
	for _, path := range newsFiles {
		res.Documents++
		chunks, err := p.newsChunks(ctx, path)
		if err != nil {
			res.FailedDocuments++
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		pending = append(pending, chunks...)
	}

	return pending
}

func (p *Pipeline) tabularChunks(ctx context.Context, path string) ([]pendingChunk, error) {
	doc, err := sources.LoadTabular(path)
	if err != nil {
		return nil, err
	}

	text := sources.FormatTabular(doc)
	chunks := p.chunker.Split(ctx, doc.Filename, text, p.cfg.TabularMaxLen)

	pending := make([]pendingChunk, 0, len(chunks))
	for _, ch := range chunks {
		pending = append(pending, pendingChunk{
			chunk:        ch,
			sourceType:   sources.TypeTabular,
			articleIndex: -1,
		})
	}
	return pending, nil
}

func (p *Pipeline) newsChunks(ctx context.Context, path string) ([]pendingChunk, error) {
	doc, err := sources.LoadNews(path)
	if err != nil {
		return nil, err
	}

	var pending []pendingChunk
	// Each article is formatted and chunked individually so chunk
	// boundaries never straddle unrelated articles.
	for i, article := range doc.Articles {
		var fullContent string
		if p.extractor != nil {
			fullContent = p.extractor.Extract(ctx, article.BestLink())
		}

		text := sources.FormatArticle(article, fullContent)
		for _, ch := range p.chunker.Split(ctx, doc.Filename, text, p.cfg.ArticleMaxLen) {
			pending = append(pending, pendingChunk{
				chunk:        ch,
				sourceType:   sources.TypeNews,
				title:        sources.StripHTML(article.Title),
				articleIndex: i,
			})
		}
	}
	return pending, nil
}
