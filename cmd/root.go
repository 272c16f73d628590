package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "abyss-screener",
	Short: "Staged bottoming screener and forward outcome backtester",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(migrateCmd)
}
