package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stockrag",
	Short: "Retrieval store for Korean stock market analysis",
	Long: `Stockrag ingests KRX daily trading reports and Naver news articles,
embeds them with CLOVA Studio, and serves top-k similarity search over
HTTP. Two independent stores are maintained: a broad daily corpus and a
narrow follow-up corpus for individual stocks.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".stockrag.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
