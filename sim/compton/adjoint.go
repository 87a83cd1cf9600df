package compton

import (
	"fmt"
	"math"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/table"
)

// adjointUpper returns the largest incoming energy nu_i <= emax whose
// forward DCS support still reaches down to nuF, by bisection on the
// support's lower bound (monotone increasing in nu_i).
func adjointUpper(m sim.ComptonModel, nuF, emax float64) float64 {
	loAtMax, _ := m.DCSSupport(emax)
	if loAtMax <= nuF {
		return emax
	}
	lo, hi := nuF, emax
	for iter := 0; iter < 60; iter++ {
		mid := math.Sqrt(lo * hi)
		l, _ := m.DCSSupport(mid)
		if l <= nuF {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// adjointRejection samples the backward Compton transition by importance
// weighting: nu_i is drawn log-uniformly over the adjoint support and the
// departure from the true adjoint density is carried entirely by the
// returned weight,
//
//	w = DCS(nu_i, nu_f) * nu_i * ln(nu_up/nu_f) / sigma(nu_f),
//
// the Bayes weight against a flat reference spectrum. No table build is
// needed, which makes this the fallback for models without a closed-form
// adjoint profile.
type adjointRejection struct {
	sim.ComptonModel
	emax float64
}

func newAdjointRejection(forward sim.ComptonModel, ctx sim.ModelContext) *adjointRejection {
	return &adjointRejection{ComptonModel: forward, emax: ctx.EnergyMax}
}

func (a *adjointRejection) AdjointSupport(nuF float64) (float64, float64) {
	return nuF, adjointUpper(a.ComptonModel, nuF, a.emax)
}

func (a *adjointRejection) SampleAdjoint(nuF float64, rng *sim.Stream) sim.ComptonSample {
	lo, up := a.AdjointSupport(nuF)
	if !(up > lo) {
		// Already at the top of the transportable range: no incoming
		// energy can reach nuF. The kernel classifies this as ENERGY_MAX.
		return sim.ComptonSample{Energy: nuF, CosTheta: 1, Weight: 0}
	}
	logRatio := math.Log(up / lo)
	sigmaF := a.CrossSection(nuF)
	// Doppler-broadened models have thin zero-DCS slivers near the
	// interpolated support edge; redraw instead of returning weight 0.
	for try := 0; try < 100; try++ {
		nuI := lo * math.Exp(rng.Float64()*logRatio)
		dcs := a.DCS(nuI, nuF)
		if dcs <= 0 {
			continue
		}
		w := dcs * nuI * logRatio / sigmaF
		return sim.ComptonSample{Energy: nuI, CosTheta: knCosTheta(nuI, nuF), Weight: w}
	}
	return sim.ComptonSample{Energy: nuF, CosTheta: 1, Weight: 0}
}

func (a *adjointRejection) CrossingProbability(nuF, line float64) float64 {
	lo, up := a.AdjointSupport(nuF)
	if line <= lo {
		return 1
	}
	if line >= up || !(up > lo) {
		return 0
	}
	return math.Log(up/line) / math.Log(up/lo)
}

// adjointInverse pre-tabulates the adjoint transition: for each final
// energy node nu_f it stores the inverse CDF of
//
//	p+(nu_i | nu_f) ∝ DCS(nu_i, nu_f) * ref(nu_i)
//
// over the adjoint support, plus the normalization A(nu_f) that makes the
// Bayes weight w = A(nu_f) / (ref(nu_i) * sigma(nu_f)). Sampling is a
// single bilinear lookup; the price is the table build at compute time.
type adjointInverse struct {
	sim.ComptonModel
	emax float64
	ref  sim.ReferenceSpectrum
	cdf  table.InverseCDF
	norm table.CrossSection1D // A(nu_f), cm^2 against the reference
}

func newAdjointInverse(forward sim.ComptonModel, ctx sim.ModelContext) (*adjointInverse, error) {
	ref := ctx.Reference
	if ref == nil {
		ref = sim.FlatSpectrum{Min: ctx.EnergyMin, Max: ctx.EnergyMax}
	}
	grid, err := table.NewLogGrid(ctx.EnergyMin, ctx.EnergyMax, ctx.Grid.EnergyNodes)
	if err != nil {
		return nil, err
	}
	a := &adjointInverse{
		ComptonModel: forward,
		emax:         ctx.EnergyMax,
		ref:          ref,
		cdf:          table.NewInverseCDF(grid, ctx.Grid.XNodes),
		norm:         table.NewCrossSection1D(grid),
	}
	nx := ctx.Grid.XNodes
	cdf := make([]float64, nx)
	for i := 0; i < grid.N; i++ {
		nuF := grid.Node(i)
		lo := nuF
		up := adjointUpper(forward, nuF, ctx.EnergyMax)
		if !(up > lo) {
			// Top-of-grid node: degenerate support, sampled mass zero.
			// Give the row an epsilon span so interpolation stays finite.
			up = lo * (1 + 1e-9)
		}
		a.cdf.Support[i] = table.Support{Min: lo, Max: up}
		logRatio := math.Log(up / lo)

		cdf[0] = 0
		prev := forward.DCS(lo, nuF) * ref.Density(lo) * lo * logRatio
		for j := 1; j < nx; j++ {
			x := float64(j) / float64(nx-1)
			nuI := lo * math.Exp(x*logRatio)
			cur := forward.DCS(nuI, nuF) * ref.Density(nuI) * nuI * logRatio
			cdf[j] = cdf[j-1] + (prev+cur)/2/float64(nx-1)
			prev = cur
		}
		total := cdf[nx-1]
		if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
			return nil, fmt.Errorf("adjoint CDF integral %g at nu_f=%g MeV", total, nuF)
		}
		a.norm.Values[i] = total
		if total <= 0 {
			// Degenerate row: uniform ramp keeps the table well formed.
			for j := 0; j < nx; j++ {
				a.cdf.Set(i, j, float64(j)/float64(nx-1))
			}
			continue
		}
		for j := 0; j < nx; j++ {
			y := float64(j) / float64(nx-1) * total
			k, t := table.BracketSorted(cdf, y)
			a.cdf.Set(i, j, (float64(k)+t)/float64(nx-1))
		}
	}
	return a, nil
}

func (a *adjointInverse) AdjointSupport(nuF float64) (float64, float64) {
	i, frac := a.cdf.EnergyGrid.Bracket(nuF)
	s0, s1 := a.cdf.Support[i], a.cdf.Support[i+1]
	return nuF, s0.Max*(1-frac) + s1.Max*frac
}

func (a *adjointInverse) SampleAdjoint(nuF float64, rng *sim.Stream) sim.ComptonSample {
	norm := a.norm.Eval(nuF)
	if norm <= 0 {
		return sim.ComptonSample{Energy: nuF, CosTheta: 1, Weight: 0}
	}
	nuI := a.cdf.Sample(nuF, rng.Float64())
	if nuI < nuF {
		nuI = nuF
	}
	w := norm / (a.ref.Density(nuI) * a.CrossSection(nuF))
	return sim.ComptonSample{Energy: nuI, CosTheta: knCosTheta(nuI, nuF), Weight: w}
}

// CrossingProbability inverts the tabulated transform at the line by
// bisection on the uniform variate.
func (a *adjointInverse) CrossingProbability(nuF, line float64) float64 {
	lo, up := a.AdjointSupport(nuF)
	if line <= lo {
		return 1
	}
	if line >= up {
		return 0
	}
	yLo, yHi := 0.0, 1.0
	for iter := 0; iter < 40; iter++ {
		y := (yLo + yHi) / 2
		if a.cdf.Sample(nuF, y) < line {
			yLo = y
		} else {
			yHi = y
		}
	}
	return 1 - (yLo+yHi)/2
}
