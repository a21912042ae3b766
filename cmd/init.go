package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jhpark-dev/stockrag/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize stockrag configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure stockrag and generates a .stockrag.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
