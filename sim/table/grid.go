// Package table provides the log-energy-grid storage and bilinear
// interpolation shared by every physics model's cross-section and DCS
// tables.
package table

import (
	"fmt"
	"math"
	"sort"
)

// LogGrid is a logarithmically spaced 1-D grid over [min, max], stored as
// precomputed bounds so bracketing a query value is a couple of
// multiply-adds rather than repeated math.Log calls.
type LogGrid struct {
	Min, Max float64
	N        int
	logMin   float64
	logSpan  float64 // log(max) - log(min)
}

// NewLogGrid builds a LogGrid with n nodes over [min, max]. Returns an error
// if the bounds are non-positive or degenerate, or n < 2: grid-precision
// failures are rejected at build time, never deferred to lookup.
func NewLogGrid(min, max float64, n int) (LogGrid, error) {
	if min <= 0 || max <= min {
		return LogGrid{}, fmt.Errorf("table: invalid log grid bounds [%g, %g]", min, max)
	}
	if n < 2 {
		return LogGrid{}, fmt.Errorf("table: log grid needs at least 2 nodes, got %d", n)
	}
	logMin := math.Log(min)
	logMax := math.Log(max)
	return LogGrid{Min: min, Max: max, N: n, logMin: logMin, logSpan: logMax - logMin}, nil
}

// Node returns the value at grid index i.
func (g LogGrid) Node(i int) float64 {
	t := float64(i) / float64(g.N-1)
	return math.Exp(g.logMin + t*g.logSpan)
}

// Index returns the fractional index of x on the grid (may be outside
// [0, N-1] if x is outside [Min, Max]).
func (g LogGrid) Index(x float64) float64 {
	return (math.Log(x) - g.logMin) / g.logSpan * float64(g.N-1)
}

// Bracket returns the lower node index i and interpolation fraction t such
// that x lies between Node(i) and Node(i+1), with x clamped into range.
func (g LogGrid) Bracket(x float64) (i int, t float64) {
	idx := g.Index(x)
	if idx <= 0 {
		return 0, 0
	}
	if idx >= float64(g.N-1) {
		return g.N - 2, 1
	}
	i = int(idx)
	return i, idx - float64(i)
}

// BracketSorted performs the same bracketing as Bracket but via
// sort.Search over an explicit ascending sample slice xs, for tables whose
// node spacing is not a pure log grid (e.g. a per-(nu_i) support bound
// ladder). This is the one place in the table package that falls back to
// the standard library rather than gonum/floats, which has no binary-search
// primitive of its own (see DESIGN.md).
func BracketSorted(xs []float64, x float64) (i int, t float64) {
	n := len(xs)
	if n < 2 {
		return 0, 0
	}
	if x <= xs[0] {
		return 0, 0
	}
	if x >= xs[n-1] {
		return n - 2, 1
	}
	j := sort.SearchFloat64s(xs, x)
	if j == 0 {
		j = 1
	}
	lo, hi := xs[j-1], xs[j]
	if hi == lo {
		return j - 1, 0
	}
	return j - 1, (x - lo) / (hi - lo)
}
