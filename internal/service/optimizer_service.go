package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/backtest"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/market"
	"golang-backtest/internal/model"
	"golang-backtest/internal/optimizer"
	"golang-backtest/internal/repository"
	"golang-backtest/internal/simulator"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/telegram"
	"golang-backtest/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OptimizerService interface {
	Optimize(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizeResult, error)
}

type optimizerService struct {
	cfg        *config.Config
	log        *logger.Logger
	marketData MarketDataService
	runRepo    repository.OptimizationRunRepository
	notifier   telegram.Notifier
	progress   func(optimizer.Progress)
}

// OptimizerOption customizes the optimizer service.
type OptimizerOption func(*optimizerService)

// WithOptimizerProgress forwards the running best of every search.
func WithOptimizerProgress(fn func(optimizer.Progress)) OptimizerOption {
	return func(s *optimizerService) {
		s.progress = fn
	}
}

func NewOptimizerService(
	cfg *config.Config,
	log *logger.Logger,
	marketData MarketDataService,
	runRepo repository.OptimizationRunRepository,
	notifier telegram.Notifier,
	opts ...OptimizerOption,
) OptimizerService {
	s := &optimizerService{
		cfg:        cfg,
		log:        log,
		marketData: marketData,
		runRepo:    runRepo,
		notifier:   notifier,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// evaluator backtests one combination. The wealth objective also runs the
// capital simulation.
func (s *optimizerService) evaluator(data market.Dataset, objective optimizer.Objective) optimizer.Evaluator {
	runCfg := runnerConfig(s.cfg)
	// paralel di level kombinasi, bukan per ticker
	runCfg.Workers = 1
	runner := backtest.NewRunner(s.log, runCfg)

	simCfg := simulatorConfig(s.cfg)
	simCfg.Until = data.LastDate()

	return func(ctx context.Context, strat strategy.Strategy) (optimizer.Score, error) {
		res, err := runner.Run(ctx, strat, data)
		if err != nil {
			return optimizer.Score{}, err
		}
		score := optimizer.Score{
			MeanWinPercent: res.Metrics.MeanWinPercent,
			WinRate:        res.Metrics.WinRate,
			Wealth:         math.NaN(),
			Trades:         res.Metrics.TotalTrades,
		}
		if objective != optimizer.ObjectiveWealth {
			return score, nil
		}
		if len(res.Trades) == 0 {
			// capital stays untouched
			score.Wealth = simCfg.TotalAmount.InexactFloat64()
			return score, nil
		}
		sim, err := simulator.Simulate(res.Trades, simCfg)
		if err != nil {
			return optimizer.Score{}, err
		}
		score.Wealth = sim.Wealth.InexactFloat64()
		return score, nil
	}
}

func (s *optimizerService) Optimize(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizeResult, error) {
	kind, err := strategy.ParseKind(req.Strategy)
	if err != nil {
		return nil, err
	}
	objectiveName := req.Objective
	if objectiveName == "" {
		objectiveName = s.cfg.Optimizer.Objective
	}
	objective, err := optimizer.ParseObjective(objectiveName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	universe, err := s.marketData.ResolveUniverse(ctx, req.UniverseRequest)
	if err != nil {
		return nil, err
	}
	data, err := s.marketData.GetInstrumentSeries(ctx, universe)
	if err != nil {
		return nil, err
	}
	if data, err = since(data, req.From); err != nil {
		return nil, err
	}
	opts, err := strategyOptions(ctx, s.marketData, kind, universe)
	if err != nil {
		return nil, err
	}

	run := &model.OptimizationRun{
		Strategy:  string(kind),
		Objective: string(objective),
		Status:    model.StatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.log.ErrorContext(ctx, "Failed to create optimization run", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create optimization run: %w", err)
	}

	var optimizerOpts []optimizer.Option
	if s.progress != nil {
		optimizerOpts = append(optimizerOpts, optimizer.WithProgress(s.progress))
	}
	opt := optimizer.NewOptimizer(s.log, optimizer.Config{
		Workers:   s.cfg.Optimizer.Workers,
		Objective: objective,
	}, optimizerOpts...)

	var report *optimizer.Report
	if len(req.Grid) > 0 {
		grid := make(strategy.Grid, len(req.Grid))
		for i, values := range req.Grid {
			grid[i] = append([]int(nil), values...)
		}
		report, err = opt.RunGrid(ctx, kind, grid, s.evaluator(data, objective), opts...)
	} else {
		report, err = opt.Run(ctx, kind, s.evaluator(data, objective), opts...)
	}
	if report != nil {
		run.Combinations = report.Total
		run.Skipped = len(report.Skips)
	}
	if err != nil {
		s.finishRun(ctx, run, err)
		s.log.ErrorContextWithAlert(ctx, "Optimization failed", logger.ErrorField(err), logger.StringField("strategy", string(kind)))
		return nil, err
	}

	result := newOptimizeResult(report)
	result.RunID = run.ID
	if err := fillRun(run, report, result); err != nil {
		return nil, err
	}
	s.finishRun(ctx, run, nil)

	if err := s.notifier.SendMessage(ctx, FormatOptimizeMessage(result)); err != nil {
		s.log.WarnContext(ctx, "Failed to send optimization result", logger.ErrorField(err))
	}
	return result, nil
}

func (s *optimizerService) finishRun(ctx context.Context, run *model.OptimizationRun, runErr error) {
	run.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	run.Status = model.StatusCompleted
	if runErr != nil {
		run.Status = model.StatusFailed
		run.ErrorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	}
	// context bisa sudah cancel, update tetap dijalankan
	if err := s.runRepo.Update(context.WithoutCancel(ctx), run); err != nil {
		s.log.ErrorContext(ctx, "Failed to update optimization run", logger.ErrorField(err), logger.IntField("run_id", int(run.ID)))
	}
}

func newOptimizeResult(report *optimizer.Report) *dto.OptimizeResult {
	result := &dto.OptimizeResult{
		Strategy:     string(report.Kind),
		Objective:    string(report.Objective),
		Best:         strategy.Named(report.Kind, report.Best),
		BestValue:    utils.FiniteOrNil(report.BestValue),
		BestScore:    dto.NewOptimizeOutcome(report.Best, report.BestScore),
		Combinations: report.Total,
		Outcomes:     make([]dto.OptimizeOutcome, 0, len(report.Outcomes)),
		Skips:        dto.NewOptimizeSkips(report.Skips),
	}
	for _, o := range report.Outcomes {
		result.Outcomes = append(result.Outcomes, dto.NewOptimizeOutcome(o.Combination, o.Score))
	}
	return result
}

func fillRun(run *model.OptimizationRun, report *optimizer.Report, result *dto.OptimizeResult) error {
	best, err := json.Marshal(result.Best)
	if err != nil {
		return fmt.Errorf("failed to marshal best parameters: %w", err)
	}
	outcomes, err := json.Marshal(result.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	run.BestParameters = datatypes.JSON(best)
	run.Outcomes = datatypes.JSON(outcomes)
	run.BestValue = result.BestValue
	if w := report.BestScore.Wealth; !math.IsNaN(w) && !math.IsInf(w, 0) {
		run.BestWealth = decimal.NewNullDecimal(decimal.NewFromFloat(w))
	}
	return nil
}

// FormatOptimizeMessage renders the best combination and the top outcomes.
func FormatOptimizeMessage(result *dto.OptimizeResult) string {
	names := make([]string, 0, len(result.Best))
	for _, n := range strategy.ParameterNames(strategy.Kind(result.Strategy)) {
		if v, ok := result.Best[n]; ok {
			names = append(names, fmt.Sprintf("%s=%d", n, v))
		}
	}

	rows := make([][]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		rows = append(rows, []string{
			fmt.Sprint(o.Combination),
			optionalPercent(o.MeanWinPercent),
			optionalPercent(o.WinRate),
			optionalFloat(o.Wealth),
			strconv.Itoa(o.Trades),
		})
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔎 <b>%s grid search</b> (%s)\n", strings.ToUpper(result.Strategy), result.Objective))
	builder.WriteString(fmt.Sprintf("Best: %s\nValue: %s\nCombinations: %d, skipped: %d\n\n",
		strings.Join(names, ", "), optionalFloat(result.BestValue), result.Combinations, len(result.Skips)))
	builder.WriteString(telegram.FormatSection("Outcomes",
		[]string{"Combination", "Mean win", "Win rate", "Wealth", "Trades"}, rows, "No outcome"))
	return builder.String()
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return utils.FormatFloat(*v)
}
