package indicator

import (
	"fmt"
	"math"
)

// EMA is the bias corrected exponentially weighted mean with span window,
// i.e. decay alpha = 2/(window+1). Leading NaN inputs stay NaN; a NaN after
// the first observation repeats the previous mean.
func EMA(src Column, window int) Column {
	name := fmt.Sprintf("%s_ema_%d", src.Name, window)
	out := undefined(src.Len())
	if window <= 0 {
		return Column{Name: name, Values: out}
	}

	decay := 1 - 2/float64(window+1)
	var num, den float64
	for i, v := range src.Values {
		num *= decay
		den *= decay
		if !math.IsNaN(v) {
			num += v
			den++
		}
		if den > 0 {
			out[i] = num / den
		}
	}
	return Column{Name: name, Values: out}
}

// SMA is the trailing arithmetic mean over exactly window values.
func SMA(src Column, window int) Column {
	name := fmt.Sprintf("%s_sma_%d", src.Name, window)
	return Column{Name: name, Values: rolling(src.Values, window, mean)}
}

// RollingMax is the trailing maximum over window values.
func RollingMax(src Column, window int) Column {
	name := fmt.Sprintf("%s_max_%d", src.Name, window)
	return Column{Name: name, Values: rolling(src.Values, window, maximum)}
}

// RollingMin is the trailing minimum over window values.
func RollingMin(src Column, window int) Column {
	name := fmt.Sprintf("%s_min_%d", src.Name, window)
	return Column{Name: name, Values: rolling(src.Values, window, minimum)}
}

// rolling applies fn to every full trailing window. A window holding a NaN
// is undefined.
func rolling(x []float64, window int, fn func([]float64) float64) []float64 {
	out := undefined(len(x))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		w := x[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = fn(w)
	}
	return out
}

func hasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func mean(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func maximum(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minimum(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// popStd is the population standard deviation of x.
func popStd(x []float64) float64 {
	m := mean(x)
	var ss float64
	for _, v := range x {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(x)))
}
