package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang-backtest/config"
	"golang-backtest/internal/backtest"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/market"
	"golang-backtest/internal/model"
	"golang-backtest/internal/repository"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/telegram"
	"golang-backtest/pkg/utils"

	"gorm.io/datatypes"
)

type SignalService interface {
	GetTodaySignals(ctx context.Context, req dto.SignalRequest) (*dto.SignalResult, error)
	// SendTodaySignals stores the signals as recommendations and sends
	// them to the telegram chat.
	SendTodaySignals(ctx context.Context, req dto.SignalRequest) (*dto.SignalResult, error)
}

type signalService struct {
	cfg                *config.Config
	log                *logger.Logger
	marketData         MarketDataService
	recommendationRepo repository.RecommendationRepository
	notifier           telegram.Notifier
}

func NewSignalService(
	cfg *config.Config,
	log *logger.Logger,
	marketData MarketDataService,
	recommendationRepo repository.RecommendationRepository,
	notifier telegram.Notifier,
) SignalService {
	return &signalService{
		cfg:                cfg,
		log:                log,
		marketData:         marketData,
		recommendationRepo: recommendationRepo,
		notifier:           notifier,
	}
}

func (s *signalService) GetTodaySignals(ctx context.Context, req dto.SignalRequest) (*dto.SignalResult, error) {
	kind, err := strategy.ParseKind(req.Strategy)
	if err != nil {
		return nil, err
	}

	universe, err := s.marketData.ResolveUniverse(ctx, req.UniverseRequest)
	if err != nil {
		return nil, err
	}
	data, err := s.marketData.GetFreshSeries(ctx, universe, s.cfg.MarketData.FreshLookbackDays)
	if err != nil {
		return nil, err
	}

	asOf := data.LastDate()
	if req.AsOf != "" {
		if asOf, err = utils.ParseDate(req.AsOf); err != nil {
			return nil, fmt.Errorf("%w: as_of: %v", ErrInvalidRequest, err)
		}
	}

	events, err := s.marketData.GetEarningsEvents(ctx, universe)
	if err != nil {
		return nil, err
	}
	calendar := market.NewEarningsCalendar(events)

	var opts []strategy.Option
	if kind == strategy.KindEarnings {
		opts = append(opts, strategy.WithEarnings(calendar))
	}
	strat, err := buildStrategy(kind, req.Parameters, opts)
	if err != nil {
		return nil, err
	}

	runCfg := runnerConfig(s.cfg)
	runCfg.MinWeekPreviousEntries = req.MinWeekPreviousEntries
	today, err := backtest.NewRunner(s.log, runCfg).Today(ctx, strat, data, asOf)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(today.Entries)+len(today.Exits))
	for _, e := range today.Entries {
		tickers = append(tickers, e.Ticker)
	}
	for _, t := range today.Exits {
		tickers = append(tickers, t.Ticker)
	}
	names, err := s.marketData.GetCompanyNames(ctx, tickers)
	if err != nil {
		// nama perusahaan hanya untuk tampilan
		s.log.WarnContext(ctx, "Failed to get company names", logger.ErrorField(err))
		names = map[string]string{}
	}

	result := &dto.SignalResult{
		Strategy:   string(kind),
		Parameters: strategy.Named(kind, strat.Parameters()),
		AsOf:       today.AsOf.Format(market.DateLayout),
		Entries:    filterEntries(today.Entries, calendar, names, req),
		Exits:      make([]dto.SignalExit, 0, len(today.Exits)),
		Failures:   dto.ErrorStrings(today.Failures),
		RawExits:   today.Exits,
	}
	for _, t := range today.Exits {
		result.Exits = append(result.Exits, dto.SignalExit{
			Ticker:      t.Ticker,
			CompanyName: names[t.Ticker],
			EntryDate:   t.EntryDate.Format(market.DateLayout),
			ExitDate:    t.ExitDate.Format(market.DateLayout),
			EntryPrice:  t.EntryPrice,
			ExitPrice:   t.ExitPrice,
			ExitReason:  string(t.ExitReason),
			WinPercent:  utils.FiniteOrNil(t.WinPercent),
		})
	}

	s.log.InfoContext(ctx, "Today signals computed",
		logger.StringField("strategy", string(kind)),
		logger.StringField("as_of", result.AsOf),
		logger.IntField("candidates", len(today.Entries)),
		logger.IntField("entries", len(result.Entries)),
		logger.IntField("exits", len(result.Exits)),
	)
	return result, nil
}

// filterEntries joins earnings information to the entries and keeps those
// far enough from the previous and the next results.
func filterEntries(entries []backtest.Entry, calendar market.EarningsCalendar, names map[string]string, req dto.SignalRequest) []dto.SignalEntry {
	out := make([]dto.SignalEntry, 0, len(entries))
	for _, e := range entries {
		entry := dto.SignalEntry{
			Ticker:              e.Ticker,
			CompanyName:         names[e.Ticker],
			Date:                e.Date.Format(market.DateLayout),
			Close:               e.Close,
			Volume:              e.Volume,
			WeekPreviousEntries: e.WeekPreviousEntries,
			Hints:               dto.NewHints(e.Hints),
		}
		if last, ok := calendar.Last(e.Ticker, e.Date); ok {
			entry.DaysSinceLastResult = utils.ToPointer(market.DaysBetween(last.EventDate, e.Date))
			entry.LastSurprisePercent = last.SurprisePct
			if entry.CompanyName == "" {
				entry.CompanyName = last.CompanyName
			}
		}
		if next, ok := calendar.Next(e.Ticker, e.Date); ok {
			entry.DaysToNextResult = utils.ToPointer(market.DaysBetween(e.Date, next.EventDate))
		}

		if entry.DaysToNextResult != nil && *entry.DaysToNextResult <= req.DaysToNextResult {
			continue
		}
		if entry.DaysSinceLastResult != nil && *entry.DaysSinceLastResult <= req.DaysSinceLastResult {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func (s *signalService) SendTodaySignals(ctx context.Context, req dto.SignalRequest) (*dto.SignalResult, error) {
	result, err := s.GetTodaySignals(ctx, req)
	if err != nil {
		return nil, err
	}

	recs, err := recommendations(result)
	if err != nil {
		return nil, err
	}
	if err := s.recommendationRepo.Upsert(ctx, recs); err != nil {
		s.log.ErrorContext(ctx, "Failed to store recommendations", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to store recommendations: %w", err)
	}

	if err := s.notifier.SendMessage(ctx, FormatSignalMessage(result)); err != nil {
		s.log.ErrorContextWithAlert(ctx, "Failed to send signals", logger.ErrorField(err), logger.StringField("strategy", result.Strategy))
		return nil, fmt.Errorf("failed to send signals: %w", err)
	}

	s.log.InfoContext(ctx, "Today signals sent",
		logger.StringField("strategy", result.Strategy),
		logger.IntField("entries", len(result.Entries)),
		logger.IntField("exits", len(result.Exits)),
	)
	return result, nil
}

func recommendations(result *dto.SignalResult) ([]model.TradeRecommendation, error) {
	asOf, err := utils.ParseDate(result.AsOf)
	if err != nil {
		return nil, err
	}

	recs := make([]model.TradeRecommendation, 0, len(result.Entries)+len(result.RawExits))
	for _, e := range result.Entries {
		hints, err := json.Marshal(e.Hints)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal hints: %w", err)
		}
		recs = append(recs, model.TradeRecommendation{
			Strategy:            result.Strategy,
			Ticker:              e.Ticker,
			SignalDate:          asOf,
			Kind:                model.RecommendationEntry,
			Close:               e.Close,
			WeekPreviousEntries: e.WeekPreviousEntries,
			CompanyName:         e.CompanyName,
			LastSurprisePercent: e.LastSurprisePercent,
			Hints:               datatypes.JSON(hints),
		})
	}
	for i, t := range result.RawExits {
		hints, err := json.Marshal(dto.NewHints(t.Hints))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal hints: %w", err)
		}
		recs = append(recs, model.TradeRecommendation{
			Strategy:            result.Strategy,
			Ticker:              t.Ticker,
			SignalDate:          asOf,
			Kind:                model.RecommendationExit,
			Close:               t.ExitPrice,
			EntryDate:           utils.ToPointer(t.EntryDate),
			ExitPrice:           utils.ToPointer(t.ExitPrice),
			ExitReason:          string(t.ExitReason),
			WinPercent:          utils.FiniteOrNil(t.WinPercent),
			WeekPreviousEntries: t.WeekPreviousEntries,
			CompanyName:         result.Exits[i].CompanyName,
			Hints:               datatypes.JSON(hints),
		})
	}
	return recs, nil
}

func optionalPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return utils.FormatPercentage(*v)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// FormatSignalMessage renders the entries and exits tables as telegram HTML.
func FormatSignalMessage(result *dto.SignalResult) string {
	entryRows := make([][]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		entryRows = append(entryRows, []string{
			e.Ticker,
			e.CompanyName,
			utils.FormatFloat(e.Close),
			strconv.Itoa(e.WeekPreviousEntries),
			optionalPercent(e.LastSurprisePercent),
			optionalInt(e.DaysToNextResult),
		})
	}
	exitRows := make([][]string, 0, len(result.Exits))
	for _, e := range result.Exits {
		exitRows = append(exitRows, []string{
			e.Ticker,
			e.EntryDate,
			utils.FormatFloat(e.ExitPrice),
			optionalPercent(e.WinPercent),
			e.ExitReason,
		})
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📈 <b>%s signals %s</b>\n\n", strings.ToUpper(result.Strategy), result.AsOf))
	builder.WriteString(telegram.FormatSection("Entries",
		[]string{"Ticker", "Company", "Close", "WPE", "Surprise", "Next"}, entryRows, "No entry today"))
	builder.WriteString("\n\n")
	builder.WriteString(telegram.FormatSection("Exits",
		[]string{"Ticker", "Entry", "Exit", "Win", "Reason"}, exitRows, "No exit today"))
	return builder.String()
}
