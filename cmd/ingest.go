package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhpark-dev/stockrag/internal/config"
	"github.com/jhpark-dev/stockrag/internal/embeddings"
	"github.com/jhpark-dev/stockrag/internal/ledger"
	"github.com/jhpark-dev/stockrag/internal/pipeline"
	"github.com/jhpark-dev/stockrag/internal/sources"
	"github.com/jhpark-dev/stockrag/internal/vectorstore"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed collected documents into a store",
	Long: `Reads KRX trading CSVs and news JSON files from the store's data
directory, chunks and embeds them, and persists vectors alongside
metadata. By default new records are appended to the existing store;
use --rebuild to replace it.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("store", "daily", "store to ingest into: daily or followup")
	ingestCmd.Flags().Bool("rebuild", false, "clear the store before ingesting")
	ingestCmd.Flags().Bool("dedupe", false, "skip chunks already recorded in the ingestion ledger")
	ingestCmd.Flags().Bool("fetch-content", false, "fetch full article bodies from their links")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	storeFlag, _ := cmd.Flags().GetString("store")
	rebuild, _ := cmd.Flags().GetBool("rebuild")
	dedupe, _ := cmd.Flags().GetBool("dedupe")
	fetchContent, _ := cmd.Flags().GetBool("fetch-content")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	storeName := config.StoreName(storeFlag)
	storeCfg, ok := cfg.Store(storeName)
	if !ok {
		return fmt.Errorf("unknown store %q (expected daily or followup)", storeFlag)
	}

	paced, err := buildPacedEmbedder(cfg)
	if err != nil {
		return err
	}

	store := vectorstore.Open(storeCfg.VectorDir, paced.Dimensions())
	if err := store.Load(); err != nil {
		return fmt.Errorf("loading vector store from %s: %w", storeCfg.VectorDir, err)
	}

	lgr, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("opening ingestion ledger: %w", err)
	}
	defer lgr.Close()

	var extractor *sources.ContentExtractor
	if fetchContent {
		extractor = sources.NewContentExtractor(15 * time.Second)
	}

	p := pipeline.New(storeName, storeCfg, store, buildChunker(cfg), embeddings.NewFailSoft(paced), paced, lgr, extractor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx, pipeline.Options{Rebuild: rebuild, Dedupe: dedupe})
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d documents into the %s store: %d chunks embedded (%d degraded", res.Documents, storeName, res.Embedded, res.Degraded)
	if dedupe {
		fmt.Printf(", %d duplicates skipped", res.DuplicatesSkipped)
	}
	fmt.Printf(")\nStore now holds %d records at %s\n", store.Len(), storeCfg.VectorDir)
	if res.FailedDocuments > 0 {
		fmt.Printf("Warning: %d document(s) failed to load and were skipped\n", res.FailedDocuments)
	}
	return nil
}
