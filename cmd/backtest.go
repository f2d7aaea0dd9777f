package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang-backtest/internal/dto"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/export"

	"github.com/spf13/cobra"
)

var backtestFlags struct {
	params    []int
	tickers   []string
	rankStart int
	rankEnd   int
	from      string
	simulate  bool
	worst     int
	trades    bool
	output    string
}

var backtestCmd = &cobra.Command{
	Use:   "backtest <strategy>",
	Short: "Backtest a strategy over the stored history",
	Long:  "Backtest a strategy over the stored history. Strategies: " + strategyList(),
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.IntSliceVar(&backtestFlags.params, "params", nil, "strategy parameters in order, default parameters when empty")
	f.StringSliceVar(&backtestFlags.tickers, "tickers", nil, "explicit tickers, ranked universe when empty")
	f.IntVar(&backtestFlags.rankStart, "rank-start", 0, "first market cap rank of the universe")
	f.IntVar(&backtestFlags.rankEnd, "rank-end", 0, "last market cap rank of the universe")
	f.StringVar(&backtestFlags.from, "from", "", "first bar date (YYYY-MM-DD)")
	f.BoolVar(&backtestFlags.simulate, "simulate", false, "run the capital simulation")
	f.IntVar(&backtestFlags.worst, "worst", 0, "list the N worst trades")
	f.BoolVar(&backtestFlags.trades, "trades", false, "include every trade in the output")
	f.StringVar(&backtestFlags.output, "output", "", "write the trade table to a parquet file")
}

func strategyList() string {
	kinds := strategy.Kinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, fmt.Sprintf("%s (%s)", k, strings.Join(strategy.ParameterNames(k), ", ")))
	}
	return strings.Join(names, "; ")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		return err
	}
	defer appDep.Close()

	req := dto.BacktestRequest{
		UniverseRequest: dto.UniverseRequest{
			Tickers:   backtestFlags.tickers,
			RankStart: backtestFlags.rankStart,
			RankEnd:   backtestFlags.rankEnd,
		},
		Strategy:      args[0],
		Parameters:    backtestFlags.params,
		From:          backtestFlags.from,
		Simulate:      backtestFlags.simulate,
		Worst:         backtestFlags.worst,
		IncludeTrades: backtestFlags.trades,
	}
	if err := appDep.validator.Struct(req); err != nil {
		return err
	}

	result, err := appDep.NewServices(nil).BacktestService.RunBacktest(ctx, req)
	if err != nil {
		return err
	}

	if backtestFlags.output != "" {
		if err := export.WriteTrades(backtestFlags.output, result.RawTrades); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d trades written to %s\n", len(result.RawTrades), backtestFlags.output)
	}
	return printJSON(result)
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// signalContext is cancelled on interrupt so long runs stop cleanly.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
