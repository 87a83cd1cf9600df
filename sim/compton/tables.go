package compton

import (
	"fmt"
	"math"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/table"
)

// dcsModel is the minimal surface the table builders need from a model:
// the analytic pieces, without the sampler.
type dcsModel interface {
	DCS(nuI, nuF float64) float64
	DCSSupport(nuI float64) (float64, float64)
}

// integrateDCS computes sigma(nu_i) = integral of DCS over the support,
// by the trapezoid rule on the log-mapped x variable with nx panels:
// nu_f(x) = nu_min*(nu_max/nu_min)^x, dnu_f = nu_f*ln(nu_max/nu_min)*dx.
func integrateDCS(m dcsModel, nuI float64, nx int) float64 {
	lo, hi := m.DCSSupport(nuI)
	if !(hi > lo) || lo <= 0 {
		return 0
	}
	logRatio := math.Log(hi / lo)
	sum := 0.0
	for j := 0; j <= nx; j++ {
		x := float64(j) / float64(nx)
		nuF := lo * math.Exp(x*logRatio)
		v := m.DCS(nuI, nuF) * nuF * logRatio
		if j == 0 || j == nx {
			v /= 2
		}
		sum += v
	}
	return sum / float64(nx)
}

// buildCrossSection tabulates sigma(nu) over the context energy grid by
// integrating the DCS at every node.
func buildCrossSection(m dcsModel, ctx sim.ModelContext) (table.CrossSection1D, error) {
	grid, err := table.NewLogGrid(ctx.EnergyMin, ctx.EnergyMax, ctx.Grid.EnergyNodes)
	if err != nil {
		return table.CrossSection1D{}, err
	}
	xs := table.NewCrossSection1D(grid)
	xs.Fill(func(nu float64) float64 {
		return integrateDCS(m, nu, ctx.Grid.XNodes)
	})
	for i, v := range xs.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return table.CrossSection1D{}, fmt.Errorf("cross-section table node %d (nu=%g MeV) is %g", i, grid.Node(i), v)
		}
	}
	return xs, nil
}

// buildInverseCDF pre-tabulates the inverse transform x(y) of the forward
// DCS for every incoming-energy grid node. Row i holds the inverse CDF of
// the normalized DCS at nu_i = grid.Node(i), sampled on a uniform y grid.
func buildInverseCDF(m dcsModel, ctx sim.ModelContext) (*table.InverseCDF, error) {
	grid, err := table.NewLogGrid(ctx.EnergyMin, ctx.EnergyMax, ctx.Grid.EnergyNodes)
	if err != nil {
		return nil, err
	}
	nx := ctx.Grid.XNodes
	inv := table.NewInverseCDF(grid, nx)
	cdf := make([]float64, nx)
	for i := 0; i < grid.N; i++ {
		nuI := grid.Node(i)
		lo, hi := m.DCSSupport(nuI)
		if !(hi > lo) || lo <= 0 {
			return nil, fmt.Errorf("degenerate DCS support [%g, %g] at nu_i=%g MeV", lo, hi, nuI)
		}
		inv.Support[i] = table.Support{Min: lo, Max: hi}
		logRatio := math.Log(hi / lo)

		// Cumulative trapezoid of the DCS on the x grid.
		cdf[0] = 0
		prev := m.DCS(nuI, lo) * lo * logRatio
		for j := 1; j < nx; j++ {
			x := float64(j) / float64(nx-1)
			nuF := lo * math.Exp(x*logRatio)
			cur := m.DCS(nuI, nuF) * nuF * logRatio
			cdf[j] = cdf[j-1] + (prev+cur)/2/float64(nx-1)
			prev = cur
		}
		total := cdf[nx-1]
		if !(total > 0) || math.IsNaN(total) || math.IsInf(total, 0) {
			return nil, fmt.Errorf("non-positive DCS integral %g at nu_i=%g MeV", total, nuI)
		}

		// Invert: for each uniform y, find x with CDF(x) = y*total.
		for j := 0; j < nx; j++ {
			y := float64(j) / float64(nx-1) * total
			k, t := table.BracketSorted(cdf, y)
			inv.Set(i, j, (float64(k)+t)/float64(nx-1))
		}
	}
	return &inv, nil
}
