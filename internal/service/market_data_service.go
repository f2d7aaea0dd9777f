package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/contract"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/market"
	"golang-backtest/internal/model"
	"golang-backtest/internal/repository"
	"golang-backtest/pkg/cache"
	"golang-backtest/pkg/common"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	goValidator "github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

const (
	// shortest and longest calendar gap accepted between two stored bars
	minGapDays = 1
	maxGapDays = 5

	updateProgressEvery = 10
	freshCacheTTL       = 15 * time.Minute
)

var ErrEmptyUniverse = errors.New("empty universe")

type MarketDataService interface {
	contract.SeriesProvider
	contract.EarningsProvider
	contract.UniverseProvider
	contract.CompanyDirectory

	// ResolveUniverse returns the explicit tickers of req, or the ranked
	// universe. A zero rank range falls back to the configured one.
	ResolveUniverse(ctx context.Context, req dto.UniverseRequest) ([]string, error)
	UpdateHistory(ctx context.Context, tickers []string) (*dto.UpdateReport, error)
	UpdateEarnings(ctx context.Context, tickers []string) (*dto.UpdateReport, error)
	CheckHistory(ctx context.Context, tickers []string) (*dto.IntegrityReport, error)
	// ImportUniverse loads a ticker list CSV with a header naming at least
	// the Ticker column.
	ImportUniverse(ctx context.Context, r io.Reader) (int, error)
}

type marketDataService struct {
	cfg          *config.Config
	log          *logger.Logger
	cache        cache.Cache
	validator    *goValidator.Validate
	barRepo      repository.BarRepository
	earningsRepo repository.EarningsRepository
	tickerRepo   repository.TickerRepository
	yahooRepo    repository.YahooFinanceRepository
	uow          repository.UnitOfWork
	loc          *time.Location
	now          func() time.Time
}

func NewMarketDataService(
	cfg *config.Config,
	log *logger.Logger,
	inmemoryCache cache.Cache,
	barRepo repository.BarRepository,
	earningsRepo repository.EarningsRepository,
	tickerRepo repository.TickerRepository,
	yahooRepo repository.YahooFinanceRepository,
	uow repository.UnitOfWork,
) MarketDataService {
	return &marketDataService{
		cfg:          cfg,
		log:          log,
		cache:        inmemoryCache,
		validator:    goValidator.New(),
		barRepo:      barRepo,
		earningsRepo: earningsRepo,
		tickerRepo:   tickerRepo,
		yahooRepo:    yahooRepo,
		uow:          uow,
		loc:          utils.LoadLocation(cfg.Scheduler.TimeZone),
		now:          time.Now,
	}
}

func universeKey(universe []string) string {
	sorted := append([]string(nil), universe...)
	sort.Strings(sorted)
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(sorted, ",")))
	return strconv.FormatUint(h.Sum64(), 16)
}

func (s *marketDataService) today() time.Time {
	t := s.now().In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *marketDataService) startDate() time.Time {
	start, err := utils.ParseDate(s.cfg.MarketData.StartDate)
	if err != nil {
		return time.Time{}
	}
	return start
}

func (s *marketDataService) ResolveUniverse(ctx context.Context, req dto.UniverseRequest) ([]string, error) {
	if len(req.Tickers) > 0 {
		seen := make(map[string]bool, len(req.Tickers))
		out := make([]string, 0, len(req.Tickers))
		for _, t := range req.Tickers {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
		return out, nil
	}

	rankStart, rankEnd := req.RankStart, req.RankEnd
	if rankStart == 0 && rankEnd == 0 {
		rankStart, rankEnd = s.cfg.Optimizer.RankStart, s.cfg.Optimizer.RankEnd
	}
	universe, err := s.GetRankedUniverse(ctx, rankStart, rankEnd)
	if err != nil {
		return nil, err
	}
	if len(universe) == 0 {
		return nil, fmt.Errorf("%w: no tickers ranked %d to %d", ErrEmptyUniverse, rankStart, rankEnd)
	}
	return universe, nil
}

func (s *marketDataService) GetRankedUniverse(ctx context.Context, rankStart, rankEnd int) ([]string, error) {
	key := fmt.Sprintf(common.KEY_RANKED_UNIVERSE, rankStart, rankEnd)
	return cache.Remember(s.cache, key, s.cfg.Cache.DefaultExpiration, func() ([]string, error) {
		tickers, err := s.tickerRepo.GetRanked(ctx, rankStart, rankEnd)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to get ranked universe", logger.ErrorField(err))
			return nil, fmt.Errorf("failed to get ranked universe: %w", err)
		}
		out := make([]string, 0, len(tickers))
		for _, t := range tickers {
			out = append(out, t.Ticker)
		}
		return out, nil
	})
}

func (s *marketDataService) GetCompanyNames(ctx context.Context, tickers []string) (map[string]string, error) {
	out := make(map[string]string, len(tickers))
	if len(tickers) == 0 {
		return out, nil
	}
	rows, err := s.tickerRepo.GetByTickers(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("failed to get company names: %w", err)
	}
	for _, r := range rows {
		out[r.Ticker] = r.CompanyName
	}
	return out, nil
}

func (s *marketDataService) loadDataset(ctx context.Context, universe []string, from time.Time) (market.Dataset, error) {
	bars, err := s.barRepo.Get(ctx, model.GetBarsParam{Tickers: universe, From: from})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load bars", logger.ErrorField(err), logger.IntField("tickers", len(universe)))
		return nil, fmt.Errorf("failed to load bars: %w", err)
	}

	grouped := make(map[string][]market.Bar, len(universe))
	for _, b := range bars {
		grouped[b.Ticker] = append(grouped[b.Ticker], b.ToMarket())
	}
	data := make(market.Dataset, len(grouped))
	for ticker, tickerBars := range grouped {
		data[ticker] = market.NewSeries(ticker, tickerBars)
	}
	return data, nil
}

func (s *marketDataService) GetInstrumentSeries(ctx context.Context, universe []string) (market.Dataset, error) {
	key := fmt.Sprintf(common.KEY_DATASET, universeKey(universe))
	return cache.Remember(s.cache, key, s.cfg.Cache.DefaultExpiration, func() (market.Dataset, error) {
		return s.loadDataset(ctx, universe, s.startDate())
	})
}

func (s *marketDataService) GetFreshSeries(ctx context.Context, universe []string, lookbackDays int) (market.Dataset, error) {
	key := fmt.Sprintf(common.KEY_FRESH_DATASET, universeKey(universe), lookbackDays)
	if cached, ok := cache.GetFromCache[market.Dataset](s.cache, key); ok {
		return cached, nil
	}

	report, err := s.UpdateHistory(ctx, universe)
	if err != nil {
		return nil, err
	}
	if len(report.Failed) > 0 {
		// tetap lanjut dengan data yang sudah tersimpan
		s.log.WarnContext(ctx, "Some tickers could not be refreshed", logger.IntField("failed", len(report.Failed)))
	}

	data, err := s.loadDataset(ctx, universe, s.today().AddDate(0, 0, -lookbackDays))
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, data, freshCacheTTL)
	return data, nil
}

func (s *marketDataService) GetEarningsEvents(ctx context.Context, universe []string) ([]market.EarningsEvent, error) {
	key := fmt.Sprintf(common.KEY_EARNINGS, universeKey(universe))
	return cache.Remember(s.cache, key, s.cfg.Cache.DefaultExpiration, func() ([]market.EarningsEvent, error) {
		rows, err := s.earningsRepo.GetByTickers(ctx, universe)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to load earnings events", logger.ErrorField(err))
			return nil, fmt.Errorf("failed to load earnings events: %w", err)
		}
		events := make([]market.EarningsEvent, 0, len(rows))
		for _, r := range rows {
			events = append(events, r.ToMarket())
		}
		return events, nil
	})
}

func (s *marketDataService) tickersOrActive(ctx context.Context, tickers []string) ([]string, error) {
	if len(tickers) > 0 {
		return tickers, nil
	}
	active, err := s.tickerRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tickers: %w", err)
	}
	out := make([]string, 0, len(active))
	for _, t := range active {
		out = append(out, t.Ticker)
	}
	return out, nil
}

// forEachTicker runs fn over tickers with the configured concurrency. A
// failing ticker is reported and does not stop the others.
func (s *marketDataService) forEachTicker(ctx context.Context, action string, tickers []string, fn func(ctx context.Context, ticker string) (int, error)) (*dto.UpdateReport, error) {
	report := &dto.UpdateReport{Requested: len(tickers), Failed: make(map[string]string)}
	var (
		mu        sync.Mutex
		processed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MarketData.MaxConcurrency)
	for _, ticker := range tickers {
		if !utils.ShouldContinue(gctx, s.log) {
			break
		}
		g.Go(func() error {
			rows, err := fn(gctx, ticker)

			mu.Lock()
			defer mu.Unlock()
			processed++
			if err != nil {
				s.log.ErrorContext(gctx, "Failed to "+action, logger.ErrorField(err), logger.StringField("ticker", ticker))
				report.Failed[ticker] = err.Error()
			} else if rows > 0 {
				report.Updated++
				report.Rows += rows
			}
			if processed%updateProgressEvery == 0 {
				s.log.InfoContext(gctx, "Market data progress",
					logger.StringField("action", action),
					logger.IntField("processed", processed),
					logger.IntField("total", len(tickers)),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("%s cancelled: %w", action, err)
	}

	if len(report.Failed) > 0 {
		failed := make([]string, 0, len(report.Failed))
		for t := range report.Failed {
			failed = append(failed, t)
		}
		sort.Strings(failed)
		s.log.ErrorContext(ctx, "Failed tickers", logger.StringField("action", action),
			logger.IntField("count", len(failed)), logger.StringField("tickers", strings.Join(failed, ",")))
	}
	s.log.InfoContext(ctx, "Market data "+action+" completed",
		logger.IntField("requested", report.Requested),
		logger.IntField("updated", report.Updated),
		logger.IntField("rows", report.Rows),
	)
	return report, nil
}

func (s *marketDataService) UpdateHistory(ctx context.Context, tickers []string) (*dto.UpdateReport, error) {
	tickers, err := s.tickersOrActive(ctx, tickers)
	if err != nil {
		return nil, err
	}

	lastDates, err := s.barRepo.GetLastDates(ctx, tickers)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get last bar dates", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get last bar dates: %w", err)
	}
	from := make(map[string]time.Time, len(lastDates))
	for _, l := range lastDates {
		from[l.Ticker] = market.Day(l.Date).AddDate(0, 0, 1)
	}

	start := s.startDate()
	// bar hari ini belum final
	end := s.today().AddDate(0, 0, -1)

	report, err := s.forEachTicker(ctx, "update history", tickers, func(ctx context.Context, ticker string) (int, error) {
		begin, ok := from[ticker]
		if !ok {
			begin = start
		}
		if begin.After(end) {
			return 0, nil
		}
		bars, err := s.yahooRepo.GetDailyBars(ctx, ticker, begin, end)
		if err != nil {
			return 0, err
		}
		rows := make([]model.Bar, 0, len(bars))
		for _, b := range bars {
			rows = append(rows, model.NewBar(b))
		}
		if err := s.barRepo.CreateBulk(ctx, rows); err != nil {
			return 0, fmt.Errorf("failed to store bars: %w", err)
		}
		return len(rows), nil
	})
	if report != nil && report.Rows > 0 {
		s.cache.Flush()
	}
	return report, err
}

func (s *marketDataService) UpdateEarnings(ctx context.Context, tickers []string) (*dto.UpdateReport, error) {
	tickers, err := s.tickersOrActive(ctx, tickers)
	if err != nil {
		return nil, err
	}

	report, err := s.forEachTicker(ctx, "update earnings", tickers, func(ctx context.Context, ticker string) (int, error) {
		profile, events, err := s.yahooRepo.GetEarnings(ctx, ticker)
		if err != nil {
			return 0, err
		}
		rows := make([]model.EarningsEvent, 0, len(events))
		for _, e := range events {
			rows = append(rows, model.NewEarningsEvent(e))
		}
		// earnings and company profile are stored together
		err = s.uow.Run(ctx, func(opts ...utils.DBOption) error {
			if err := s.earningsRepo.Upsert(ctx, rows, opts...); err != nil {
				return fmt.Errorf("failed to store earnings: %w", err)
			}
			if profile == nil || profile.CompanyName == "" {
				return nil
			}
			err := s.tickerRepo.Upsert(ctx, []model.Ticker{{
				Ticker:      ticker,
				CompanyName: profile.CompanyName,
				Exchange:    profile.Exchange,
				MarketCap:   profile.MarketCap,
				IsActive:    true,
			}}, opts...)
			if err != nil {
				return fmt.Errorf("failed to store company profile: %w", err)
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
		return len(rows), nil
	})
	if report != nil && report.Rows > 0 {
		s.cache.Flush()
	}
	return report, err
}

func (s *marketDataService) CheckHistory(ctx context.Context, tickers []string) (*dto.IntegrityReport, error) {
	bars, err := s.barRepo.Get(ctx, model.GetBarsParam{Tickers: tickers})
	if err != nil {
		return nil, fmt.Errorf("failed to load bars: %w", err)
	}

	report := &dto.IntegrityReport{}
	grouped := make(map[string][]time.Time)
	var minDate, maxDate time.Time
	for _, b := range bars {
		d := market.Day(b.Date)
		grouped[b.Ticker] = append(grouped[b.Ticker], d)
		if minDate.IsZero() || d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}
	if !minDate.IsZero() {
		report.MinDate = minDate.Format(market.DateLayout)
		report.MaxDate = maxDate.Format(market.DateLayout)
	}
	report.Tickers = len(grouped)

	names := make([]string, 0, len(grouped))
	for t := range grouped {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		s.log.DebugContext(ctx, "Checking history", logger.StringField("ticker", t))
		report.Issues = append(report.Issues, CheckDates(t, grouped[t])...)
	}

	s.log.InfoContext(ctx, "History check completed",
		logger.StringField("min_date", report.MinDate),
		logger.StringField("max_date", report.MaxDate),
		logger.IntField("tickers", report.Tickers),
		logger.IntField("issues", len(report.Issues)),
	)
	return report, nil
}

// CheckDates verifies that dates hold no duplicates and that consecutive
// dates are minGapDays to maxGapDays apart.
func CheckDates(ticker string, dates []time.Time) []dto.IntegrityIssue {
	var issues []dto.IntegrityIssue
	sorted := append([]time.Time(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	unique := make(map[time.Time]bool, len(sorted))
	for _, d := range sorted {
		unique[d] = true
	}
	if len(unique) != len(sorted) {
		issues = append(issues, dto.IntegrityIssue{
			Ticker:   ticker,
			Check:    "duplicate dates",
			Observed: fmt.Sprintf("rows_number = %d, dates_number = %d", len(sorted), len(unique)),
			Expected: "one row per date",
		})
	}
	if len(sorted) < 2 {
		return issues
	}

	minGap, maxGap := market.DaysBetween(sorted[0], sorted[1]), 0
	var maxAt time.Time
	for i := 1; i < len(sorted); i++ {
		gap := market.DaysBetween(sorted[i-1], sorted[i])
		if gap < minGap {
			minGap = gap
		}
		if gap > maxGap {
			maxGap, maxAt = gap, sorted[i]
		}
	}
	if maxGap > maxGapDays {
		issues = append(issues, dto.IntegrityIssue{
			Ticker:   ticker,
			Check:    "max gap",
			Observed: fmt.Sprintf("%d days before %s", maxGap, maxAt.Format(market.DateLayout)),
			Expected: fmt.Sprintf("at most %d days", maxGapDays),
		})
	}
	if minGap < minGapDays {
		issues = append(issues, dto.IntegrityIssue{
			Ticker:   ticker,
			Check:    "min gap",
			Observed: fmt.Sprintf("%d days", minGap),
			Expected: fmt.Sprintf("at least %d day", minGapDays),
		})
	}
	return issues
}

func (s *marketDataService) ImportUniverse(ctx context.Context, r io.Reader) (int, error) {
	rows, err := ParseUniverseCSV(r)
	if err != nil {
		return 0, err
	}

	tickers := make([]model.Ticker, 0, len(rows))
	for i, row := range rows {
		if err := s.validator.Struct(row); err != nil {
			return 0, fmt.Errorf("invalid universe row %d: %w", i+1, err)
		}
		tickers = append(tickers, model.Ticker{
			Ticker:      row.Ticker,
			CompanyName: row.CompanyName,
			Exchange:    row.Exchange,
			MarketCap:   row.MarketCap,
			IsActive:    true,
		})
	}
	if err := s.tickerRepo.Upsert(ctx, tickers); err != nil {
		s.log.ErrorContext(ctx, "Failed to import universe", logger.ErrorField(err))
		return 0, fmt.Errorf("failed to import universe: %w", err)
	}
	s.cache.Flush()

	s.log.InfoContext(ctx, "Universe imported", logger.IntField("tickers", len(tickers)))
	return len(tickers), nil
}

// ParseUniverseCSV reads a ticker list. Recognized headers, case
// insensitive: ticker, name or company, exchange, market capitalization or
// market_cap. Duplicate tickers keep the last row.
func ParseUniverseCSV(r io.Reader) ([]dto.UniverseRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read universe header: %w", err)
	}
	col := map[string]int{"ticker": -1, "name": -1, "exchange": -1, "market_cap": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "ticker", "symbol":
			col["ticker"] = i
		case "name", "company", "company_name":
			col["name"] = i
		case "exchange":
			col["exchange"] = i
		case "market capitalization", "market_cap", "marketcap":
			col["market_cap"] = i
		}
	}
	if col["ticker"] < 0 {
		return nil, fmt.Errorf("universe header has no ticker column: %v", header)
	}

	field := func(record []string, name string) string {
		i := col[name]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	index := make(map[string]int)
	var rows []dto.UniverseRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read universe line %d: %w", line, err)
		}

		row := dto.UniverseRow{
			Ticker:      strings.ToUpper(field(record, "ticker")),
			CompanyName: field(record, "name"),
			Exchange:    field(record, "exchange"),
		}
		if raw := field(record, "market_cap"); raw != "" {
			marketCap, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid market capitalization %q on line %d: %w", raw, line, err)
			}
			row.MarketCap = int64(marketCap)
		}
		if row.Ticker == "" {
			continue
		}
		if i, ok := index[row.Ticker]; ok {
			rows[i] = row
			continue
		}
		index[row.Ticker] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}
