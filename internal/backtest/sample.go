package backtest

import (
	"hash/fnv"
	"math/rand"
	"sort"

	"golang-backtest/internal/market"
)

// Sampler draws up to PerInstrument trades of each instrument. A zero
// PerInstrument disables sampling.
type Sampler struct {
	PerInstrument int
	Seed          int64
}

// Enabled reports whether the sampler drops anything.
func (s Sampler) Enabled() bool {
	return s.PerInstrument > 0
}

// Sample returns a date ordered random subset of trades. The draw depends
// only on the seed, the ticker and the input.
func (s Sampler) Sample(ticker string, trades []market.Trade) []market.Trade {
	if !s.Enabled() || len(trades) <= s.PerInstrument {
		return trades
	}
	rng := rand.New(rand.NewSource(s.Seed ^ int64(hashTicker(ticker))))
	idx := rng.Perm(len(trades))[:s.PerInstrument]
	sort.Ints(idx)

	out := make([]market.Trade, len(idx))
	for i, k := range idx {
		out[i] = trades[k]
	}
	return out
}

func hashTicker(ticker string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ticker))
	return h.Sum32()
}
