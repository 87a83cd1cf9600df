// Package rayleigh implements coherent (Rayleigh) scattering: the Thomson
// angular kernel weighted by the squared atomic form factor F(q), with the
// form factor assembled from the material's shell structure. Importing the
// package registers the model with sim:
//
//	import _ "github.com/goupil-project/goupil/sim/rayleigh"
package rayleigh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/table"
)

func init() {
	sim.RegisterRayleighModel(func(ctx sim.ModelContext) (sim.RayleighModel, error) {
		return newModel(ctx)
	})
}

// cosPanels is the trapezoid resolution of the cross-section integral,
// taken over ln(1-c) so that the narrow forward peak left by the form
// factor at MeV energies is resolved.
const cosPanels = 256

type model struct {
	shells []sim.Shell
	f0     float64 // F(0) == electrons per formula unit
	sigma  table.CrossSection1D
	// Cubic fit of ln(sigma) against ln(nu), for queries that fall off
	// the tabulated grid. The Rayleigh cross section is a smooth power
	// law over the transport window, so a low-order fit is enough.
	fit [4]float64
}

func newModel(ctx sim.ModelContext) (*model, error) {
	m := &model{shells: ctx.Structure.Shells, f0: ctx.ElectronsPerFormula}
	grid, err := table.NewLogGrid(ctx.EnergyMin, ctx.EnergyMax, ctx.Grid.EnergyNodes)
	if err != nil {
		return nil, err
	}
	m.sigma = table.NewCrossSection1D(grid)
	m.sigma.Fill(m.integrate)
	for i, v := range m.sigma.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return nil, fmt.Errorf("rayleigh cross-section node %d (nu=%g MeV) is %g", i, grid.Node(i), v)
		}
	}
	if err := m.fitLogLog(); err != nil {
		return nil, err
	}
	return m, nil
}

// formFactor evaluates F(q) per formula unit: each shell contributes a
// hydrogenic-like factor that decays over its own momentum scale.
func (m *model) formFactor(q float64) float64 {
	f := 0.0
	for _, sh := range m.shells {
		p := sh.MeanMomentum
		if p <= 0 {
			p = sim.FineStructure * sim.ElectronMass
		}
		u := q / (2 * p)
		d := 1 + u*u
		f += sh.Occupancy / (d * d)
	}
	return f
}

// dcs is dSigma/dCosTheta per formula unit, cm^2: the Thomson kernel times
// the squared form factor at q = nu*sqrt(2(1-c)).
func (m *model) dcs(nu, c float64) float64 {
	re2 := sim.ClassicalElectronRadius * sim.ClassicalElectronRadius
	q := nu * math.Sqrt(2*(1-c))
	f := m.formFactor(q)
	return math.Pi * re2 * (1 + c*c) * f * f
}

// integrate sums dcs over w = 1-c on a log grid from wMin to 2; the sliver
// [0, wMin] is added as dcs(nu, 1)*wMin.
func (m *model) integrate(nu float64) float64 {
	const wMin = 1e-12
	logSpan := math.Log(2 / wMin)
	sum := 0.0
	for j := 0; j <= cosPanels; j++ {
		w := wMin * math.Exp(logSpan*float64(j)/float64(cosPanels))
		v := m.dcs(nu, 1-w) * w
		if j == 0 || j == cosPanels {
			v /= 2
		}
		sum += v
	}
	return m.dcs(nu, 1)*wMin + sum*logSpan/float64(cosPanels)
}

// fitLogLog least-squares fits ln(sigma) = sum_k fit[k]*ln(nu)^k over the
// tabulated nodes, via the QR factorization of the Vandermonde system.
func (m *model) fitLogLog() error {
	n := m.sigma.Grid.N
	a := mat.NewDense(n, 4, nil)
	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		lnNu := math.Log(m.sigma.Grid.Node(i))
		pow := 1.0
		for k := 0; k < 4; k++ {
			a.Set(i, k, pow)
			pow *= lnNu
		}
		b.SetVec(i, math.Log(m.sigma.Values[i]))
	}
	var qr mat.QR
	qr.Factorize(a)
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return fmt.Errorf("rayleigh log-log fit: %w", err)
	}
	for k := 0; k < 4; k++ {
		m.fit[k] = x.AtVec(k)
	}
	return nil
}

func (m *model) CrossSection(nu float64) float64 {
	if nu >= m.sigma.Grid.Min && nu <= m.sigma.Grid.Max {
		return m.sigma.Eval(nu)
	}
	lnNu := math.Log(nu)
	acc, pow := 0.0, 1.0
	for k := 0; k < 4; k++ {
		acc += m.fit[k] * pow
		pow *= lnNu
	}
	return math.Exp(acc)
}

// Sample draws the scattering cosine by rejection: the cosine proposal
// follows the bare Thomson kernel (1+c^2), inverted in closed form, and
// the form-factor ratio F(q)^2/F(0)^2 <= 1 is the acceptance test.
func (m *model) Sample(nu float64, rng *sim.Stream) sim.RayleighSample {
	f02 := m.f0 * m.f0
	for {
		c := sampleThomsonCosine(rng)
		q := nu * math.Sqrt(2*(1-c))
		f := m.formFactor(q)
		if rng.Float64()*f02 <= f*f {
			return sim.RayleighSample{CosTheta: c}
		}
	}
}

// sampleThomsonCosine inverts the (1+c^2) density on [-1, 1]. The cubic
// CDF equation is solved by Newton iteration from the midpoint; the
// density is bounded away from zero so convergence is fast.
func sampleThomsonCosine(rng *sim.Stream) float64 {
	u := rng.Float64()
	// CDF(c) = (c + c^3/3 + 4/3) / (8/3)
	c := 2*u - 1
	for iter := 0; iter < 16; iter++ {
		f := (c+c*c*c/3+4.0/3)/(8.0/3) - u
		df := (1 + c*c) / (8.0 / 3)
		step := f / df
		c -= step
		if c > 1 {
			c = 1
		} else if c < -1 {
			c = -1
		}
		if math.Abs(step) < 1e-12 {
			break
		}
	}
	return c
}
