package compton

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	sim "github.com/goupil-project/goupil/sim"
)

// testContext builds a ModelContext over air's electronic structure.
func testContext(t *testing.T) sim.ModelContext {
	t.Helper()
	m := sim.MaterialDefinition{
		Name: "Air",
		Components: []sim.MaterialComponent{
			{Element: "N", Fraction: 0.78},
			{Element: "O", Fraction: 0.21},
			{Element: "Ar", Fraction: 0.01},
		},
	}
	if err := m.Resolve(sim.DefaultElementTable()); err != nil {
		t.Fatalf("resolve air: %v", err)
	}
	return sim.ModelContext{
		Structure:           m.Structure(),
		ElectronsPerFormula: m.ElectronsPerFormula(),
		AtomsPerFormula:     1,
		EnergyMin:           0.01,
		EnergyMax:           3.0,
		Grid:                sim.GridSettings{EnergyNodes: 64, XNodes: 128},
	}
}

// === Klein-Nishina Tests ===

func TestKleinNishina_ThomsonLimit(t *testing.T) {
	// k -> 0: the total cross section approaches the Thomson value.
	got := knTotalPerElectron(1e-5)
	assert.InEpsilon(t, sim.ThomsonCrossSection, got, 1e-3)
}

func TestKleinNishina_TotalAtElectronMass(t *testing.T) {
	// Analytic value at k = 1.
	got := knTotalPerElectron(sim.ElectronMass)
	assert.InEpsilon(t, 2.865e-25, got, 0.01)
}

func TestKleinNishina_TotalMatchesDCSIntegral(t *testing.T) {
	ctx := testContext(t)
	m, err := newKleinNishina(ctx, sim.Rejection)
	assert.NoError(t, err)
	for _, nu := range []float64{0.1, 0.3, 0.6, 1.2, 3.0} {
		analytic := m.CrossSection(nu)
		numeric := integrateDCS(m, nu, 512)
		assert.InEpsilon(t, analytic, numeric, 0.01, "nu=%g", nu)
	}
}

func TestKleinNishina_SupportBounds(t *testing.T) {
	lo, hi := knSupport(1.0)
	assert.InDelta(t, 1.0/(1+2/sim.ElectronMass), lo, 1e-12)
	assert.Equal(t, 1.0, hi)
	assert.InDelta(t, -1.0, knCosTheta(1.0, lo), 1e-9)
	assert.InDelta(t, 1.0, knCosTheta(1.0, hi), 1e-9)
}

func TestKleinNishina_KahnSamplesAnalog(t *testing.T) {
	ctx := testContext(t)
	m, err := newKleinNishina(ctx, sim.Rejection)
	assert.NoError(t, err)
	rng := sim.NewStream(sim.NewSeed(7))
	lo, hi := knSupport(0.5)
	for i := 0; i < 5000; i++ {
		smp := m.Sample(0.5, rng)
		assert.Equal(t, 1.0, smp.Weight)
		assert.GreaterOrEqual(t, smp.Energy, lo*(1-1e-12))
		assert.LessOrEqual(t, smp.Energy, hi*(1+1e-12))
		assert.GreaterOrEqual(t, smp.CosTheta, -1.0)
		assert.LessOrEqual(t, smp.CosTheta, 1.0)
	}
}

func TestKleinNishina_SampledSpectrumMatchesDCS(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	ctx := testContext(t)
	m, err := newKleinNishina(ctx, sim.Rejection)
	assert.NoError(t, err)

	const (
		nuI   = 0.6
		n     = 1 << 20
		nbins = 32
	)
	lo, hi := knSupport(nuI)
	rng := sim.NewStream(sim.NewSeed(123456789))
	counts := make([]float64, nbins)
	for i := 0; i < n; i++ {
		smp := m.Sample(nuI, rng)
		b := int((smp.Energy - lo) / (hi - lo) * nbins)
		if b == nbins {
			b = nbins - 1
		}
		counts[b]++
	}

	// Expected bin mass from the analytic DCS.
	total := m.CrossSection(nuI)
	chi2 := 0.0
	width := (hi - lo) / nbins
	for b := 0; b < nbins; b++ {
		mid := lo + (float64(b)+0.5)*width
		expected := m.DCS(nuI, mid) * width / total * n
		if expected < 10 {
			continue
		}
		d := counts[b] - expected
		chi2 += d * d / expected
	}
	limit := distuv.ChiSquared{K: float64(nbins - 1)}.Quantile(0.999)
	assert.Less(t, chi2, limit, "chi-square of sampled spectrum against the DCS")
}

func TestKleinNishina_InverseTransformAgreesWithRejection(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	ctx := testContext(t)
	rej, err := newKleinNishina(ctx, sim.Rejection)
	assert.NoError(t, err)
	inv, err := newKleinNishina(ctx, sim.InverseTransform)
	assert.NoError(t, err)

	const n = 200000
	nuI := 1.0
	a := make([]float64, n)
	b := make([]float64, n)
	rngA := sim.NewStream(sim.NewSeed(1))
	rngB := sim.NewStream(sim.NewSeed(2))
	for i := 0; i < n; i++ {
		a[i] = rej.Sample(nuI, rngA).Energy
		b[i] = inv.Sample(nuI, rngB).Energy
	}
	assert.InEpsilon(t, stat.Mean(a, nil), stat.Mean(b, nil), 0.01)
	assert.InEpsilon(t, stat.StdDev(a, nil), stat.StdDev(b, nil), 0.05)
}

// === Scattering Function Tests ===

func TestScatteringFunction_BoundedByKleinNishina(t *testing.T) {
	ctx := testContext(t)
	sf, err := newScatteringFunction(ctx, sim.Rejection)
	assert.NoError(t, err)

	for _, nu := range []float64{0.05, 0.1, 0.5, 1.0, 3.0} {
		kn := ctx.ElectronsPerFormula * knTotalPerElectron(nu)
		got := sf.CrossSection(nu)
		assert.LessOrEqual(t, got, kn*1.01, "nu=%g", nu)
		assert.Greater(t, got, 0.0, "nu=%g", nu)
	}
}

func TestScatteringFunction_ApproachesFreeLimit(t *testing.T) {
	// At MeV energies the momentum transfer dwarfs every shell scale and
	// the suppression must be marginal.
	ctx := testContext(t)
	sf, err := newScatteringFunction(ctx, sim.Rejection)
	assert.NoError(t, err)
	kn := ctx.ElectronsPerFormula * knTotalPerElectron(2.0)
	assert.InEpsilon(t, kn, sf.CrossSection(2.0), 0.05)
}

func TestScatteringFunction_SampleAnalogWithinSupport(t *testing.T) {
	ctx := testContext(t)
	sf, err := newScatteringFunction(ctx, sim.Rejection)
	assert.NoError(t, err)
	rng := sim.NewStream(sim.NewSeed(99))
	lo, hi := sf.DCSSupport(0.3)
	for i := 0; i < 2000; i++ {
		smp := sf.Sample(0.3, rng)
		assert.Equal(t, 1.0, smp.Weight)
		assert.GreaterOrEqual(t, smp.Energy, lo*(1-1e-12))
		assert.LessOrEqual(t, smp.Energy, hi*(1+1e-12))
	}
}

// === Penelope Tests ===

func TestPenelope_CrossSectionNearKleinNishina(t *testing.T) {
	ctx := testContext(t)
	p, err := newPenelope(ctx, sim.Rejection)
	assert.NoError(t, err)
	for _, nu := range []float64{0.3, 0.6, 1.2} {
		kn := ctx.ElectronsPerFormula * knTotalPerElectron(nu)
		got := p.CrossSection(nu)
		// The impulse approximation redistributes, it does not create:
		// totals stay within tens of percent of the free-electron value.
		assert.Greater(t, got, 0.5*kn, "nu=%g", nu)
		assert.Less(t, got, 1.5*kn, "nu=%g", nu)
	}
}

func TestPenelope_SampleRespectsBindings(t *testing.T) {
	ctx := testContext(t)
	p, err := newPenelope(ctx, sim.Rejection)
	assert.NoError(t, err)
	rng := sim.NewStream(sim.NewSeed(31))
	minBinding := math.Inf(1)
	for _, sh := range ctx.Structure.Shells {
		if sh.BindingEnergy < minBinding {
			minBinding = sh.BindingEnergy
		}
	}
	for i := 0; i < 2000; i++ {
		smp := p.Sample(0.5, rng)
		assert.Equal(t, 1.0, smp.Weight)
		assert.Greater(t, 0.5-smp.Energy, minBinding*(1-1e-9),
			"energy transfer below every activation threshold")
	}
}

func TestProfile_SamplerMatchesDensity(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	j0 := 25.0
	rng := sim.NewStream(sim.NewSeed(5))
	const n = 200000
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = sampleProfile(j0, rng)
	}
	// The analytic profile is symmetric with mode at zero.
	assert.InDelta(t, 0.0, stat.Mean(samples, nil), 3.0/j0/math.Sqrt(n))

	// Density normalization by direct quadrature.
	integral := 0.0
	const panels = 4000
	span := 10.0 / j0
	for i := 0; i <= panels; i++ {
		p := -span + 2*span*float64(i)/panels
		v := profileDensity(j0, p)
		if i == 0 || i == panels {
			v /= 2
		}
		integral += v
	}
	integral *= 2 * span / panels
	assert.InEpsilon(t, 1.0, integral, 0.01)
}
