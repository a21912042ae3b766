package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhpark-dev/stockrag/internal/config"
	"github.com/jhpark-dev/stockrag/internal/embeddings"
	"github.com/jhpark-dev/stockrag/internal/index"
	"github.com/jhpark-dev/stockrag/internal/search"
	"github.com/jhpark-dev/stockrag/internal/vectorstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve similarity search over HTTP",
	Long: `Loads the persisted vectors and metadata for the selected store,
builds the in-memory search index, and serves /health and /search until
interrupted. Use --store=all to run both stores, each on its own port.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("store", "all", "store to serve: daily, followup, or all")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	storeFlag, _ := cmd.Flags().GetString("store")
	allowAll, _ := cmd.Flags().GetBool("allow-all-origins")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var names []config.StoreName
	switch storeFlag {
	case "all":
		names = []config.StoreName{config.StoreDaily, config.StoreFollowup}
	case string(config.StoreDaily):
		names = []config.StoreName{config.StoreDaily}
	case string(config.StoreFollowup):
		names = []config.StoreName{config.StoreFollowup}
	default:
		return fmt.Errorf("unknown store %q (expected daily, followup, or all)", storeFlag)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var servers []*search.Server
	errCh := make(chan error, len(names))
	for _, name := range names {
		storeCfg, _ := cfg.Store(name)

		store := vectorstore.Open(storeCfg.VectorDir, embedder.Dimensions())
		if err := store.Load(); err != nil {
			return fmt.Errorf("loading %s store from %s: %w", name, storeCfg.VectorDir, err)
		}

		var idx *index.Index
		if store.Len() > 0 {
			idx, err = index.Build(ctx, store)
			if err != nil {
				return fmt.Errorf("building %s index: %w", name, err)
			}
			log.Printf("%s index ready: %d records indexed, %d degraded records excluded", name, idx.Size(), idx.SkippedDegraded())
		} else {
			log.Printf("%s store is empty, serving empty results. Run `stockrag ingest` first.", name)
		}

		srv := search.New(search.Config{
			StoreName: name,
			Port:      storeCfg.Port,
			AllowAll:  allowAll,
		}, store, idx, embeddings.NewFailSoft(embedder))
		servers = append(servers, srv)

		go func(srv *search.Server) {
			errCh <- srv.Start()
		}(srv)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
	return nil
}
