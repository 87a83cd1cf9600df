package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogGrid_NodeRoundTrip(t *testing.T) {
	g, err := NewLogGrid(0.001, 3.0, 128)
	assert.NoError(t, err)
	assert.InDelta(t, 0.001, g.Node(0), 1e-12)
	assert.InDelta(t, 3.0, g.Node(127), 1e-9)

	for i := 0; i < g.N; i++ {
		x := g.Node(i)
		idx := g.Index(x)
		assert.InDelta(t, float64(i), idx, 1e-6)
	}
}

func TestLogGrid_InvalidBounds(t *testing.T) {
	_, err := NewLogGrid(0, 1, 10)
	assert.Error(t, err)
	_, err = NewLogGrid(1, 1, 10)
	assert.Error(t, err)
	_, err = NewLogGrid(0.1, 1, 1)
	assert.Error(t, err)
}

func TestLogGrid_BracketClamps(t *testing.T) {
	g, _ := NewLogGrid(0.1, 10, 16)
	i, frac := g.Bracket(0.001)
	assert.Equal(t, 0, i)
	assert.Equal(t, 0.0, frac)
	i, frac = g.Bracket(1000)
	assert.Equal(t, g.N-2, i)
	assert.Equal(t, 1.0, frac)
}

func TestCrossSection1D_LinearEval(t *testing.T) {
	g, _ := NewLogGrid(0.1, 10, 5)
	xs := NewCrossSection1D(g)
	xs.Fill(func(nu float64) float64 { return nu })
	for i := 0; i < g.N; i++ {
		assert.InDelta(t, g.Node(i), xs.Eval(g.Node(i)), 1e-9)
	}
}

func TestGrid2D_BilinearExactOnCorners(t *testing.T) {
	g, _ := NewLogGrid(0.1, 10, 8)
	grid := NewGrid2D(g, 8)
	for i := 0; i < g.N; i++ {
		for j := 0; j < grid.Nx; j++ {
			grid.Set(i, j, float64(i)+float64(j)*0.1)
		}
	}
	got := grid.Bilinear(g.Node(3), 0.0)
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestInverseCDF_SampleWithinSupport(t *testing.T) {
	g, _ := NewLogGrid(0.1, 3.0, 16)
	inv := NewInverseCDF(g, 32)
	for i := 0; i < g.N; i++ {
		nuI := g.Node(i)
		inv.Support[i] = Support{Min: nuI * 0.3, Max: nuI}
		for j := 0; j < inv.Nx; j++ {
			y := float64(j) / float64(inv.Nx-1)
			inv.Set(i, j, y) // identity map in x for this synthetic test
		}
	}
	nuI := g.Node(5)
	for _, y := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		nuF := inv.Sample(nuI, y)
		assert.GreaterOrEqual(t, nuF, nuI*0.3*(1-1e-9))
		assert.LessOrEqual(t, nuF, nuI*(1+1e-9))
	}
}

func TestBracketSorted(t *testing.T) {
	xs := []float64{1, 2, 4, 8, 16}
	i, frac := BracketSorted(xs, 3)
	assert.Equal(t, 1, i)
	assert.InDelta(t, 0.5, frac, 1e-9)

	i, frac = BracketSorted(xs, 0.5)
	assert.Equal(t, 0, i)
	assert.Equal(t, 0.0, frac)

	i, frac = BracketSorted(xs, 100)
	assert.Equal(t, len(xs)-2, i)
	assert.Equal(t, 1.0, frac)
}

func TestLogGrid_MonotonicNodes(t *testing.T) {
	g, _ := NewLogGrid(0.01, 5, 64)
	prev := -math.MaxFloat64
	for i := 0; i < g.N; i++ {
		n := g.Node(i)
		assert.Greater(t, n, prev)
		prev = n
	}
}
