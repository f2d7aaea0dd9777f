package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "golang-backtest",
	Short: "Strategy signals and backtesting for daily equity bars",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(dataCmd)
}
