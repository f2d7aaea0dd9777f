// Package indicator holds the technical indicators used by the strategies.
// Every function is causal and pure: outputs are new columns aligned 1:1 with
// the input, and positions without enough history are NaN.
package indicator

import "math"

// Column is a named numeric sequence aligned with a series.
type Column struct {
	Name   string
	Values []float64
}

// NewColumn wraps values under name.
func NewColumn(name string, values []float64) Column {
	return Column{Name: name, Values: values}
}

// Len returns the number of positions.
func (c Column) Len() int { return len(c.Values) }

// At returns the value at i, NaN when i is out of range.
func (c Column) At(i int) float64 {
	if i < 0 || i >= len(c.Values) {
		return math.NaN()
	}
	return c.Values[i]
}

// Defined reports whether position i holds a value.
func (c Column) Defined(i int) bool {
	return !math.IsNaN(c.At(i))
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Diff returns x[i] - x[i-lag].
func Diff(src Column, lag int) Column {
	out := undefined(src.Len())
	for i := lag; i < src.Len(); i++ {
		out[i] = src.Values[i] - src.Values[i-lag]
	}
	return Column{Name: src.Name + "_diff", Values: out}
}

// Shift moves values k positions forward in time (k > 0 means lagged).
func Shift(src Column, k int) Column {
	out := undefined(src.Len())
	for i := range out {
		j := i - k
		if j >= 0 && j < src.Len() {
			out[i] = src.Values[j]
		}
	}
	return Column{Name: src.Name, Values: out}
}

// Sub returns a - b element wise.
func Sub(name string, a, b Column) Column {
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = a.Values[i] - b.At(i)
	}
	return Column{Name: name, Values: out}
}

// Negate returns -src.
func Negate(name string, src Column) Column {
	out := make([]float64, src.Len())
	for i, v := range src.Values {
		out[i] = -v
	}
	return Column{Name: name, Values: out}
}
