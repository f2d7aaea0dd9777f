package cmd

import (
	"golang-backtest/internal/dto"

	"github.com/spf13/cobra"
)

var signalsFlags struct {
	params              []int
	tickers             []string
	rankStart           int
	rankEnd             int
	asOf                string
	daysToNextResult    int
	daysSinceLastResult int
	minWeekEntries      int
	send                bool
}

var signalsCmd = &cobra.Command{
	Use:   "signals <strategy>",
	Short: "Compute today entries and exits of a strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignals,
}

func init() {
	f := signalsCmd.Flags()
	f.IntSliceVar(&signalsFlags.params, "params", nil, "strategy parameters in order, default parameters when empty")
	f.StringSliceVar(&signalsFlags.tickers, "tickers", nil, "explicit tickers, ranked universe when empty")
	f.IntVar(&signalsFlags.rankStart, "rank-start", 0, "first market cap rank of the universe")
	f.IntVar(&signalsFlags.rankEnd, "rank-end", 0, "last market cap rank of the universe")
	f.StringVar(&signalsFlags.asOf, "as-of", "", "signal date (YYYY-MM-DD), latest bar when empty")
	f.IntVar(&signalsFlags.daysToNextResult, "days-to-next-result", 0, "drop entries this close to the next earnings")
	f.IntVar(&signalsFlags.daysSinceLastResult, "days-since-last-result", 0, "drop entries this close to the last earnings")
	f.IntVar(&signalsFlags.minWeekEntries, "min-week-previous-entries", 1, "minimum entries during the previous week")
	f.BoolVar(&signalsFlags.send, "send", false, "store the signals and send them to telegram")
}

func runSignals(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		return err
	}
	defer appDep.Close()

	req := dto.SignalRequest{
		UniverseRequest: dto.UniverseRequest{
			Tickers:   signalsFlags.tickers,
			RankStart: signalsFlags.rankStart,
			RankEnd:   signalsFlags.rankEnd,
		},
		Strategy:               args[0],
		Parameters:             signalsFlags.params,
		AsOf:                   signalsFlags.asOf,
		DaysToNextResult:       signalsFlags.daysToNextResult,
		DaysSinceLastResult:    signalsFlags.daysSinceLastResult,
		MinWeekPreviousEntries: signalsFlags.minWeekEntries,
	}
	if err := appDep.validator.Struct(req); err != nil {
		return err
	}

	signalService := appDep.NewServices(nil).SignalService
	var result *dto.SignalResult
	if signalsFlags.send {
		result, err = signalService.SendTodaySignals(ctx, req)
	} else {
		result, err = signalService.GetTodaySignals(ctx, req)
	}
	if err != nil {
		return err
	}
	return printJSON(result)
}
