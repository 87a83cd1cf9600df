package compton

import (
	"math"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/table"
)

// penelope is the impulse-approximation model: the doubly differential
// cross section is the Klein-Nishina kernel Doppler-broadened by one
// analytic Compton profile per shell, each shell activating only when the
// energy transfer exceeds its binding energy. The (nu_f, cosTheta) joint
// distribution is sampled shell by shell; the marginal DCS used for tables
// integrates the profile over the scattering cosine.
type penelope struct {
	shells    []sim.Shell
	electrons float64
	method    sim.ComptonSamplingMethod
	broaden   float64 // relative Doppler widening of the kinematic support

	sigma   table.CrossSection1D
	inverse *table.InverseCDF // built only for InverseTransform
}

// cosThetaPanels is the trapezoid resolution of the cosine integral in the
// marginal DCS.
const cosThetaPanels = 48

func newPenelope(ctx sim.ModelContext, method sim.ComptonSamplingMethod) (*penelope, error) {
	pMax := 0.0
	for _, sh := range ctx.Structure.Shells {
		if sh.MeanMomentum > pMax {
			pMax = sh.MeanMomentum
		}
	}
	m := &penelope{
		shells:    ctx.Structure.Shells,
		electrons: ctx.ElectronsPerFormula,
		method:    method,
		broaden:   3 * pMax / sim.ElectronMass,
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

// profileJ0 maps a shell's momentum-scale parameter onto the analytic
// profile's J(0) value.
func profileJ0(sh sim.Shell) float64 {
	if sh.MeanMomentum <= 0 {
		return 1 / (math.Sqrt2 * 1e-3)
	}
	return 1 / (math.Sqrt2 * sh.MeanMomentum)
}

// profileDensity evaluates the analytic one-parameter Compton profile
// J(p_z), normalized to unit integral over p_z in (-inf, inf).
func profileDensity(j0, pz float64) float64 {
	d := 1 + 2*j0*math.Abs(pz)
	return j0 * d * math.Exp(0.5-0.5*d*d)
}

// sampleProfile draws p_z from the analytic profile by closed-form
// inversion of its CDF.
func sampleProfile(j0 float64, rng *sim.Stream) float64 {
	a := rng.Float64()
	if a < 0.5 {
		return (1 - math.Sqrt(1-2*math.Log(2*a))) / (2 * j0)
	}
	return (math.Sqrt(1-2*math.Log(2*(1-a))) - 1) / (2 * j0)
}

// pzOf returns the projection of the initial electron momentum on the
// momentum-transfer direction implied by (nu_i, nu_f, cosTheta), and the
// momentum transfer q itself.
func pzOf(nuI, nuF, cosTheta float64) (pz, q float64) {
	q2 := nuI*nuI + nuF*nuF - 2*nuI*nuF*cosTheta
	if q2 <= 0 {
		return 0, 0
	}
	q = math.Sqrt(q2)
	pz = (nuI*nuF*(1-cosTheta) - sim.ElectronMass*(nuI-nuF)) / q
	return pz, q
}

// solveNuF inverts pzOf for nu_f at fixed (nu_i, cosTheta, p_z), by Newton
// iteration seeded at the Compton line. Reports ok=false when the
// iteration leaves the physical range.
func solveNuF(nuI, cosTheta, pz float64) (float64, bool) {
	m := sim.ElectronMass
	nuF := nuI / (1 + nuI/m*(1-cosTheta)) // Compton line
	for iter := 0; iter < 20; iter++ {
		cur, q := pzOf(nuI, nuF, cosTheta)
		if q == 0 {
			return 0, false
		}
		f := cur - pz
		if math.Abs(f) < 1e-12 {
			break
		}
		// d(pz)/d(nuF)
		dpz := (nuI*(1-cosTheta)+m)/q - cur*(nuF-nuI*cosTheta)/(q*q)
		if dpz == 0 {
			return 0, false
		}
		nuF -= f / dpz
		if nuF <= 0 || math.IsNaN(nuF) {
			return 0, false
		}
	}
	if nuF <= 0 || nuF >= nuI*1.5 {
		return 0, false
	}
	return nuF, true
}

func (m *penelope) CrossSection(nu float64) float64 {
	return m.sigma.Eval(nu)
}

// DCS integrates the per-shell doubly differential cross section over the
// scattering cosine by the trapezoid rule.
func (m *penelope) DCS(nuI, nuF float64) float64 {
	lo, hi := m.DCSSupport(nuI)
	if nuF < lo || nuF > hi {
		return 0
	}
	transfer := nuI - nuF
	me := sim.ElectronMass
	re2 := sim.ClassicalElectronRadius * sim.ClassicalElectronRadius
	sum := 0.0
	for j := 0; j <= cosThetaPanels; j++ {
		c := -1 + 2*float64(j)/float64(cosThetaPanels)
		pz, q := pzOf(nuI, nuF, c)
		if q == 0 {
			continue
		}
		sin2 := 1 - c*c
		kn := math.Pi * re2 * (nuF / nuI) * (nuF / nuI) * (nuF/nuI + nuI/nuF - sin2)
		if kn <= 0 {
			continue
		}
		dpz := (nuI*(1-c)+me)/q - pz*(nuF-nuI*c)/(q*q)
		if dpz < 0 {
			dpz = -dpz
		}
		prof := 0.0
		for _, sh := range m.shells {
			if transfer < sh.BindingEnergy {
				continue
			}
			prof += sh.Occupancy * profileDensity(profileJ0(sh), pz)
		}
		v := kn * prof * dpz
		if j == 0 || j == cosThetaPanels {
			v /= 2
		}
		sum += v
	}
	return sum * 2 / float64(cosThetaPanels)
}

// DCSSupport widens the free-electron kinematic bounds by the Doppler
// broadening scale; the profile tails carry nu_f slightly past the
// Klein-Nishina limits, including marginally above nu_i.
func (m *penelope) DCSSupport(nuI float64) (float64, float64) {
	lo, _ := knSupport(nuI)
	b := m.broaden * (1 + nuI/sim.ElectronMass)
	if b > 0.9 {
		b = 0.9
	}
	return lo * (1 - b), nuI * (1 + m.broaden)
}

// Sample draws a forward event: scattering cosine from the Kahn envelope,
// shell by occupancy among those the Compton-line transfer can activate,
// p_z from the shell profile, then the Doppler-shifted nu_f. Draws that
// land below a shell's activation threshold are rejected wholesale.
func (m *penelope) Sample(nuI float64, rng *sim.Stream) sim.ComptonSample {
	if m.method == sim.InverseTransform && m.inverse != nil {
		nuF := m.inverse.Sample(nuI, rng.Float64())
		return sim.ComptonSample{Energy: nuF, CosTheta: knCosTheta(nuI, nuF), Weight: 1}
	}
	for {
		eta := kahnSample(nuI, rng)
		nuC := nuI / eta
		cosTheta := knCosTheta(nuI, nuC)
		transferC := nuI - nuC

		// Occupancy-weighted shell pick among shells active at the
		// Compton line.
		total := 0.0
		for _, sh := range m.shells {
			if transferC >= sh.BindingEnergy {
				total += sh.Occupancy
			}
		}
		if total <= 0 {
			continue
		}
		// Rejection on the active fraction keeps the occupancy marginal
		// exact.
		if rng.Float64() > total/m.electrons {
			continue
		}
		pick := rng.Float64() * total
		var shell sim.Shell
		for _, sh := range m.shells {
			if transferC < sh.BindingEnergy {
				continue
			}
			pick -= sh.Occupancy
			shell = sh
			if pick <= 0 {
				break
			}
		}

		pz := sampleProfile(profileJ0(shell), rng)
		nuF, ok := solveNuF(nuI, cosTheta, pz)
		if !ok {
			continue
		}
		if nuI-nuF < shell.BindingEnergy {
			continue
		}
		return sim.ComptonSample{Energy: nuF, CosTheta: cosTheta, Weight: 1}
	}
}
