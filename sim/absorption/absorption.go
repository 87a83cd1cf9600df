// Package absorption implements photoelectric absorption: a per-shell
// hydrogenic (Sauter-like) cross section with edge thresholds, tabulated
// over the transport energy window. Importing the package registers the
// model with sim:
//
//	import _ "github.com/goupil-project/goupil/sim/absorption"
package absorption

import (
	"fmt"
	"math"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/table"
)

func init() {
	sim.RegisterAbsorptionModel(func(ctx sim.ModelContext) (sim.AbsorptionModelImpl, error) {
		return newModel(ctx)
	})
}

type model struct {
	sigma table.CrossSection1D
}

func newModel(ctx sim.ModelContext) (*model, error) {
	grid, err := table.NewLogGrid(ctx.EnergyMin, ctx.EnergyMax, ctx.Grid.EnergyNodes)
	if err != nil {
		return nil, err
	}
	m := &model{sigma: table.NewCrossSection1D(grid)}
	m.sigma.Fill(func(nu float64) float64 {
		return evaluate(ctx.Structure.Shells, nu)
	})
	for i, v := range m.sigma.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("absorption cross-section node %d (nu=%g MeV) is %g", i, grid.Node(i), v)
		}
	}
	return m, nil
}

// evaluate sums the per-shell photoelectric cross section at photon energy
// nu, cm^2 per formula unit. Each shell above its edge contributes a
// hydrogenic Born term with a Sauter-like high-energy tail; the shell's
// effective charge is recovered from its binding energy,
// Z_s = sqrt(2*B_s / (alpha^2 * m)).
func evaluate(shells []sim.Shell, nu float64) float64 {
	m := sim.ElectronMass
	alpha2 := sim.FineStructure * sim.FineStructure
	total := 0.0
	for _, sh := range shells {
		if nu <= sh.BindingEnergy || sh.BindingEnergy <= 0 {
			continue
		}
		z2 := 2 * sh.BindingEnergy / (alpha2 * m)
		z5 := math.Pow(z2, 2.5)
		r := m / nu
		term := 4*math.Sqrt2*math.Pow(r, 3.5) + 6*r
		total += sh.Occupancy / 2 * sim.ThomsonCrossSection * alpha2 * alpha2 * z5 * term
	}
	return total
}

func (m *model) CrossSection(nu float64) float64 {
	return m.sigma.Eval(nu)
}
