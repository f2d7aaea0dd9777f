package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang-backtest/internal/dto"
	"golang-backtest/internal/optimizer"
	"golang-backtest/pkg/common"

	"github.com/spf13/cobra"
)

var optimizeFlags struct {
	objective string
	tickers   []string
	rankStart int
	rankEnd   int
	from      string
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <strategy>",
	Short: "Grid search the parameters of a strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptimize,
}

func init() {
	f := optimizeCmd.Flags()
	f.StringVar(&optimizeFlags.objective, "objective", "", "objective to maximize: "+strings.Join(common.GetObjectiveList(), ", "))
	f.StringSliceVar(&optimizeFlags.tickers, "tickers", nil, "explicit tickers, ranked universe when empty")
	f.IntVar(&optimizeFlags.rankStart, "rank-start", 0, "first market cap rank of the universe")
	f.IntVar(&optimizeFlags.rankEnd, "rank-end", 0, "last market cap rank of the universe")
	f.StringVar(&optimizeFlags.from, "from", "", "first bar date (YYYY-MM-DD)")
}

func printProgress(p optimizer.Progress) {
	fmt.Fprintf(os.Stderr, "[%d/%d] %v value=%.4f best=%v best_value=%.4f\n",
		p.Index+1, p.Total, p.Combination, p.Value, p.Best, p.BestValue)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		return err
	}
	defer appDep.Close()

	req := dto.OptimizeRequest{
		UniverseRequest: dto.UniverseRequest{
			Tickers:   optimizeFlags.tickers,
			RankStart: optimizeFlags.rankStart,
			RankEnd:   optimizeFlags.rankEnd,
		},
		Strategy:  args[0],
		Objective: optimizeFlags.objective,
		From:      optimizeFlags.from,
	}
	if err := appDep.validator.Struct(req); err != nil {
		return err
	}

	result, err := appDep.NewServices(printProgress).OptimizerService.Optimize(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(result)
}
