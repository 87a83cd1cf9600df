// Package compton implements the Compton scattering models consumed by the
// transport kernel: Klein-Nishina (free electrons at rest), the
// scattering-function model (Klein-Nishina corrected by the incoherent
// scattering function S(q)), and the Penelope impulse approximation
// (per-shell Compton profiles with activation thresholds). Each model comes
// in a forward and an adjoint flavor; the adjoint flavors drive backward
// transport.
//
// Importing this package registers every model with the sim package:
//
//	import _ "github.com/goupil-project/goupil/sim/compton"
package compton

import (
	"math"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/table"
)

// kleinNishina is the free-electron-at-rest model. Cross section and DCS
// are analytic; sampling is Kahn's rejection scheme, or a pre-tabulated
// inverse CDF when the inverse-transform method is selected.
type kleinNishina struct {
	electrons float64 // electrons per formula unit
	method    sim.ComptonSamplingMethod
	inverse   *table.InverseCDF // built only for InverseTransform
}

func newKleinNishina(ctx sim.ModelContext, method sim.ComptonSamplingMethod) (*kleinNishina, error) {
	m := &kleinNishina{electrons: ctx.ElectronsPerFormula, method: method}
	if method == sim.InverseTransform {
		inv, err := buildInverseCDF(m, ctx)
		if err != nil {
			return nil, err
		}
		m.inverse = inv
	}
	return m, nil
}

// knTotalPerElectron is the analytic Klein-Nishina total cross section per
// electron, cm^2, at photon energy nu (MeV).
func knTotalPerElectron(nu float64) float64 {
	k := nu / sim.ElectronMass
	if k <= 0 {
		return 0
	}
	l := math.Log1p(2 * k)
	re2 := sim.ClassicalElectronRadius * sim.ClassicalElectronRadius
	return 2 * math.Pi * re2 * ((1+k)/(k*k)*(2*(1+k)/(1+2*k)-l/k) + l/(2*k) - (1+3*k)/((1+2*k)*(1+2*k)))
}

// knDCSPerElectron is the analytic dSigma/dNuF per electron, cm^2/MeV,
// zero outside the kinematic support.
func knDCSPerElectron(nuI, nuF float64) float64 {
	lo, hi := knSupport(nuI)
	if nuF < lo || nuF > hi {
		return 0
	}
	m := sim.ElectronMass
	cosTheta := 1 + m/nuI - m/nuF
	sin2 := 1 - cosTheta*cosTheta
	if sin2 < 0 {
		sin2 = 0
	}
	re2 := sim.ClassicalElectronRadius * sim.ClassicalElectronRadius
	return math.Pi * re2 * m / (nuI * nuI) * (nuF/nuI + nuI/nuF - sin2)
}

// knSupport returns the kinematic [nu_min, nu_max] of the outgoing energy:
// full backscatter up to forward scattering.
func knSupport(nuI float64) (float64, float64) {
	return nuI / (1 + 2*nuI/sim.ElectronMass), nuI
}

// knCosTheta recovers the scattering cosine from the energy pair.
func knCosTheta(nuI, nuF float64) float64 {
	c := 1 + sim.ElectronMass/nuI - sim.ElectronMass/nuF
	if c > 1 {
		c = 1
	}
	if c < -1 {
		c = -1
	}
	return c
}

func (m *kleinNishina) CrossSection(nu float64) float64 {
	return m.electrons * knTotalPerElectron(nu)
}

func (m *kleinNishina) DCS(nuI, nuF float64) float64 {
	return m.electrons * knDCSPerElectron(nuI, nuF)
}

func (m *kleinNishina) DCSSupport(nuI float64) (float64, float64) {
	return knSupport(nuI)
}

func (m *kleinNishina) Sample(nuI float64, rng *sim.Stream) sim.ComptonSample {
	if m.method == sim.InverseTransform && m.inverse != nil {
		nuF := m.inverse.Sample(nuI, rng.Float64())
		return sim.ComptonSample{Energy: nuF, CosTheta: knCosTheta(nuI, nuF), Weight: 1}
	}
	eta := kahnSample(nuI, rng)
	nuF := nuI / eta
	return sim.ComptonSample{Energy: nuF, CosTheta: knCosTheta(nuI, nuF), Weight: 1}
}

// kahnSample draws eta = nu_i/nu_f from the Klein-Nishina distribution via
// Kahn's two-branch rejection scheme. Analog: every accepted draw carries
// weight 1.
func kahnSample(nuI float64, rng *sim.Stream) float64 {
	a := nuI / sim.ElectronMass
	for {
		r1 := rng.Float64()
		r2 := rng.Float64()
		r3 := rng.Float64()
		if r1 <= (1+2*a)/(9+2*a) {
			eta := 1 + 2*a*r2
			if r3 <= 4*(1/eta-1/(eta*eta)) {
				return eta
			}
		} else {
			eta := (1 + 2*a) / (1 + 2*a*r2)
			cosTheta := 1 - (eta-1)/a
			if r3 <= (cosTheta*cosTheta+1/eta)/2 {
				return eta
			}
		}
	}
}
