package compton

import (
	"math"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/table"
)

// scatteringFunction is the default Compton model: the Klein-Nishina DCS
// multiplied by the incoherent scattering function S(q), which suppresses
// small momentum transfers where the electrons respond as bound. S(q) is
// assembled from the material's aggregated shell structure: each shell
// turns on above its binding-energy transfer threshold and saturates at
// its occupancy over its characteristic momentum scale.
type scatteringFunction struct {
	shells    []sim.Shell
	electrons float64
	method    sim.ComptonSamplingMethod

	sigma   table.CrossSection1D
	inverse *table.InverseCDF // built only for InverseTransform
}

func newScatteringFunction(ctx sim.ModelContext, method sim.ComptonSamplingMethod) (*scatteringFunction, error) {
	m := &scatteringFunction{
		shells:    ctx.Structure.Shells,
		electrons: ctx.ElectronsPerFormula,
		method:    method,
	}
	sigma, err := buildCrossSection(m, ctx)
	if err != nil {
		return nil, err
	}
	m.sigma = sigma
	if method == sim.InverseTransform {
		inv, err := buildInverseCDF(m, ctx)
		if err != nil {
			return nil, err
		}
		m.inverse = inv
	}
	return m, nil
}

// momentumTransfer returns q = |k_i - k_f| in MeV/c for the energy pair,
// using the Klein-Nishina cosine.
func momentumTransfer(nuI, nuF float64) float64 {
	cosTheta := knCosTheta(nuI, nuF)
	q2 := nuI*nuI + nuF*nuF - 2*nuI*nuF*cosTheta
	if q2 < 0 {
		q2 = 0
	}
	return math.Sqrt(q2)
}

// incoherentS evaluates S(q) for an energy transfer of at least
// `transfer`: shells with binding above the transfer do not contribute.
// The per-shell profile 1 - 1/(1+u^2)^2 with u = q/p_shell interpolates
// between full suppression at q=0 and the free-electron limit.
func incoherentS(shells []sim.Shell, q, transfer float64) float64 {
	s := 0.0
	for _, sh := range shells {
		if transfer < sh.BindingEnergy {
			continue
		}
		p := sh.MeanMomentum
		if p <= 0 {
			s += sh.Occupancy
			continue
		}
		u := q / p
		d := 1 + u*u
		s += sh.Occupancy * (1 - 1/(d*d))
	}
	return s
}

func (m *scatteringFunction) CrossSection(nu float64) float64 {
	return m.sigma.Eval(nu)
}

func (m *scatteringFunction) DCS(nuI, nuF float64) float64 {
	kn := knDCSPerElectron(nuI, nuF)
	if kn == 0 {
		return 0
	}
	q := momentumTransfer(nuI, nuF)
	return kn * incoherentS(m.shells, q, nuI-nuF)
}

func (m *scatteringFunction) DCSSupport(nuI float64) (float64, float64) {
	return knSupport(nuI)
}

// Sample draws a forward event. The rejection path samples the bare
// Klein-Nishina DCS via Kahn and accepts with probability S(q)/Z, which is
// a valid envelope because S saturates at the electron count. Analog:
// weight 1.
func (m *scatteringFunction) Sample(nuI float64, rng *sim.Stream) sim.ComptonSample {
	if m.method == sim.InverseTransform && m.inverse != nil {
		nuF := m.inverse.Sample(nuI, rng.Float64())
		return sim.ComptonSample{Energy: nuF, CosTheta: knCosTheta(nuI, nuF), Weight: 1}
	}
	for {
		eta := kahnSample(nuI, rng)
		nuF := nuI / eta
		q := momentumTransfer(nuI, nuF)
		accept := incoherentS(m.shells, q, nuI-nuF) / m.electrons
		if rng.Float64() <= accept {
			return sim.ComptonSample{Energy: nuF, CosTheta: knCosTheta(nuI, nuF), Weight: 1}
		}
	}
}
