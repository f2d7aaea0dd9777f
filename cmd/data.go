package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang-backtest/internal/service"

	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Maintain the stored market data",
}

var updateHistoryCmd = &cobra.Command{
	Use:   "update-history [tickers...]",
	Short: "Fetch the missing daily bars, of every active ticker when none is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarketData(cmd, func(ctx context.Context, svc service.MarketDataService) error {
			report, err := svc.UpdateHistory(ctx, upper(args))
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var updateEarningsCmd = &cobra.Command{
	Use:   "update-earnings [tickers...]",
	Short: "Refresh the earnings events, of every active ticker when none is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarketData(cmd, func(ctx context.Context, svc service.MarketDataService) error {
			report, err := svc.UpdateEarnings(ctx, upper(args))
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var checkHistoryCmd = &cobra.Command{
	Use:   "check [tickers...]",
	Short: "Check the stored history for duplicates and gaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMarketData(cmd, func(ctx context.Context, svc service.MarketDataService) error {
			report, err := svc.CheckHistory(ctx, upper(args))
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var importUniverseCmd = &cobra.Command{
	Use:   "import-universe <csv>",
	Short: "Import a ticker list with market capitalization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer file.Close()

		return withMarketData(cmd, func(ctx context.Context, svc service.MarketDataService) error {
			n, err := svc.ImportUniverse(ctx, file)
			if err != nil {
				return err
			}
			fmt.Printf("%d tickers imported\n", n)
			return nil
		})
	},
}

func init() {
	dataCmd.AddCommand(updateHistoryCmd)
	dataCmd.AddCommand(updateEarningsCmd)
	dataCmd.AddCommand(checkHistoryCmd)
	dataCmd.AddCommand(importUniverseCmd)
}

func withMarketData(cmd *cobra.Command, fn func(ctx context.Context, svc service.MarketDataService) error) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		return err
	}
	defer appDep.Close()

	return fn(ctx, appDep.NewServices(nil).MarketDataService)
}

func upper(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, strings.ToUpper(strings.TrimSpace(t)))
	}
	return out
}
