// Package strategy implements the closed set of trading strategies. Each
// strategy turns a ticker series into signal rows carrying the entry and
// go-on flags consumed by the backtest engine.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"golang-backtest/internal/market"
)

// Kind selects a strategy variant.
type Kind string

const (
	KindMACD     Kind = "macd"
	KindRecovery Kind = "recovery"
	KindRecord   Kind = "record"
	KindReverse  Kind = "reverse"
	KindEarnings Kind = "earnings"
)

// Kinds returns every supported kind.
func Kinds() []Kind {
	return []Kind{KindMACD, KindRecovery, KindRecord, KindReverse, KindEarnings}
}

// ParseKind resolves a case insensitive kind name.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", &ConfigError{Kind: k, Reason: "unknown strategy"}
}

// Parameters is the ordered hyperparameter tuple of a strategy. The last
// three values are always max_lose_percent, max_win_percent and
// max_keep_days.
type Parameters []int

// Grid is an ordered list of candidate values per parameter.
type Grid [][]int

// ExitRules bound the life of a position.
type ExitRules struct {
	MaxLosePercent int `json:"max_lose_percent"`
	MaxWinPercent  int `json:"max_win_percent"`
	MaxKeepDays    int `json:"max_keep_days"`
}

// SignalRow is a bar annotated by a strategy. GoOn means an open position
// should stay open going into this bar.
type SignalRow struct {
	market.Bar
	Entry bool
	GoOn  bool
	Hints map[string]float64
}

// Strategy is implemented by every variant.
type Strategy interface {
	Kind() Kind
	Parameters() Parameters
	ExitRules() ExitRules
	ComputeSignals(s market.Series) ([]SignalRow, error)
	ReportColumns() []string
}

// ErrInvalidParameters is wrapped by every ConfigError.
var ErrInvalidParameters = errors.New("invalid strategy parameters")

// ConfigError is returned when a strategy cannot be built from its
// parameters.
type ConfigError struct {
	Kind   Kind
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidParameters, e.Kind, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidParameters
}

type options struct {
	earnings market.EarningsCalendar
}

// Option customizes strategy construction.
type Option func(*options)

// WithEarnings provides the earnings calendar used by KindEarnings.
func WithEarnings(cal market.EarningsCalendar) Option {
	return func(o *options) {
		o.earnings = cal
	}
}

// New builds a strategy of the given kind.
func New(kind Kind, params Parameters, opts ...Option) (Strategy, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	v, ok := variants[kind]
	if !ok {
		return nil, &ConfigError{Kind: kind, Reason: "unknown strategy"}
	}
	if len(params) != len(v.names) {
		return nil, &ConfigError{
			Kind:   kind,
			Reason: fmt.Sprintf("expected %d parameters (%s), got %d", len(v.names), strings.Join(v.names, ", "), len(params)),
		}
	}
	for i, p := range params {
		if p <= 0 {
			return nil, &ConfigError{Kind: kind, Reason: fmt.Sprintf("%s must be positive, got %d", v.names[i], p)}
		}
	}

	b := base{
		kind:   kind,
		params: append(Parameters(nil), params...),
		rules: ExitRules{
			MaxLosePercent: params[len(params)-3],
			MaxWinPercent:  params[len(params)-2],
			MaxKeepDays:    params[len(params)-1],
		},
	}
	if b.rules.MaxLosePercent >= 100 {
		return nil, &ConfigError{Kind: kind, Reason: "max_lose_percent must be below 100"}
	}
	return v.build(b, o)
}

// Default builds a strategy with its default parameters.
func Default(kind Kind, opts ...Option) (Strategy, error) {
	v, ok := variants[kind]
	if !ok {
		return nil, &ConfigError{Kind: kind, Reason: "unknown strategy"}
	}
	return New(kind, v.defaults, opts...)
}

// GridFor returns the search grid of a kind.
func GridFor(kind Kind) (Grid, error) {
	v, ok := variants[kind]
	if !ok {
		return nil, &ConfigError{Kind: kind, Reason: "unknown strategy"}
	}
	grid := make(Grid, len(v.grid))
	for i, values := range v.grid {
		grid[i] = append([]int(nil), values...)
	}
	return grid, nil
}

// ParameterNames returns the names of the parameters of a kind in order.
func ParameterNames(kind Kind) []string {
	return append([]string(nil), variants[kind].names...)
}

// Named pairs every parameter value with its name.
func Named(kind Kind, params Parameters) map[string]int {
	names := variants[kind].names
	out := make(map[string]int, len(params))
	for i, v := range params {
		if i < len(names) {
			out[names[i]] = v
		}
	}
	return out
}

type variant struct {
	names    []string
	defaults Parameters
	grid     Grid
	build    func(base, options) (Strategy, error)
}

var exitNames = []string{"max_lose_percent", "max_win_percent", "max_keep_days"}

func withExit(names ...string) []string {
	return append(names, exitNames...)
}

var variants = map[Kind]variant{
	KindMACD: {
		names:    withExit("short_window", "long_window", "macd_window", "ema_window_search"),
		defaults: Parameters{12, 30, 9, 5, 8, 15, 15},
		grid:     Grid{{9, 12, 15}, {22, 26, 30}, {9, 6}, {5, 7}, {8}, {15}, {7, 10, 15}},
		build:    newMACD,
	},
	KindRecovery: {
		names:    withExit("long_window", "medium_window", "short_window"),
		defaults: Parameters{40, 15, 7, 15, 20, 10},
		grid:     Grid{{40, 50}, {15, 20}, {7, 10}, {10, 15}, {15, 20}, {7, 10}},
		build:    newRecovery,
	},
	KindRecord: {
		names:    withExit("record_window"),
		defaults: Parameters{50, 15, 20, 10},
		grid:     Grid{{30, 40, 50, 60}, {10, 15}, {15, 20}, {7, 10}},
		build:    newRecord,
	},
	KindReverse: {
		names:    withExit("ema_window", "evolution_window"),
		defaults: Parameters{15, 5, 8, 15, 15},
		grid:     Grid{{12, 15, 21}, {5, 7, 10}, {8}, {15}, {7, 10, 15}},
		build:    newReverse,
	},
	KindEarnings: {
		names:    withExit("short_window", "long_window"),
		defaults: Parameters{5, 50, 8, 15, 15},
		grid:     Grid{{5, 9, 12}, {30, 50}, {8}, {15}, {7, 10, 15}},
		build:    newEarnings,
	},
}

type base struct {
	kind   Kind
	params Parameters
	rules  ExitRules
}

func (b base) Kind() Kind { return b.kind }

func (b base) Parameters() Parameters {
	return append(Parameters(nil), b.params...)
}

func (b base) ExitRules() ExitRules { return b.rules }
