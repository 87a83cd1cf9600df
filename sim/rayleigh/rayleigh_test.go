package rayleigh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"

	sim "github.com/goupil-project/goupil/sim"
)

func testContext(t *testing.T) sim.ModelContext {
	t.Helper()
	m := sim.MaterialDefinition{
		Name: "CaCO3",
		Components: []sim.MaterialComponent{
			{Element: "Ca", Fraction: 0.2},
			{Element: "C", Fraction: 0.2},
			{Element: "O", Fraction: 0.6},
		},
	}
	if err := m.Resolve(sim.DefaultElementTable()); err != nil {
		t.Fatalf("resolve CaCO3: %v", err)
	}
	return sim.ModelContext{
		Structure:           m.Structure(),
		ElectronsPerFormula: m.ElectronsPerFormula(),
		AtomsPerFormula:     1,
		EnergyMin:           0.01,
		EnergyMax:           3.0,
		Grid:                sim.GridSettings{EnergyNodes: 64, XNodes: 64},
	}
}

func TestFormFactor_Limits(t *testing.T) {
	ctx := testContext(t)
	m, err := newModel(ctx)
	assert.NoError(t, err)

	// F(0) is the full electron count; F decays monotonically with q.
	assert.InDelta(t, ctx.ElectronsPerFormula, m.formFactor(0), 1e-9)
	prev := m.formFactor(0)
	for _, q := range []float64{1e-3, 1e-2, 0.1, 1} {
		f := m.formFactor(q)
		assert.Less(t, f, prev, "q=%g", q)
		assert.Greater(t, f, 0.0)
		prev = f
	}
}

func TestCrossSection_DecreasesWithEnergy(t *testing.T) {
	ctx := testContext(t)
	m, err := newModel(ctx)
	assert.NoError(t, err)

	prev := math.Inf(1)
	for _, nu := range []float64{0.02, 0.05, 0.1, 0.5, 1.0, 3.0} {
		s := m.CrossSection(nu)
		assert.Greater(t, s, 0.0, "nu=%g", nu)
		assert.Less(t, s, prev, "nu=%g", nu)
		prev = s
	}
}

func TestCrossSection_ExtrapolationContinuity(t *testing.T) {
	ctx := testContext(t)
	m, err := newModel(ctx)
	assert.NoError(t, err)

	// The log-log fit must meet the table at its edges.
	inside := m.CrossSection(ctx.EnergyMax)
	outside := m.CrossSection(ctx.EnergyMax * 1.001)
	assert.InEpsilon(t, inside, outside, 0.05)
}

func TestSample_CosineRange(t *testing.T) {
	ctx := testContext(t)
	m, err := newModel(ctx)
	assert.NoError(t, err)
	rng := sim.NewStream(sim.NewSeed(3))
	for i := 0; i < 3000; i++ {
		smp := m.Sample(0.1, rng)
		assert.GreaterOrEqual(t, smp.CosTheta, -1.0)
		assert.LessOrEqual(t, smp.CosTheta, 1.0)
	}
}

func TestSample_ForwardPeakedAtHighEnergy(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	ctx := testContext(t)
	m, err := newModel(ctx)
	assert.NoError(t, err)
	rng := sim.NewStream(sim.NewSeed(17))

	const n = 50000
	low := make([]float64, n)
	high := make([]float64, n)
	for i := 0; i < n; i++ {
		low[i] = m.Sample(0.02, rng).CosTheta
		high[i] = m.Sample(1.0, rng).CosTheta
	}
	// The form factor suppresses large momentum transfers, so the mean
	// cosine grows with energy.
	assert.Greater(t, stat.Mean(high, nil), stat.Mean(low, nil)+0.1)
}

func TestSampleThomsonCosine_MatchesCDF(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	rng := sim.NewStream(sim.NewSeed(23))
	const n = 200000
	below := 0
	for i := 0; i < n; i++ {
		if sampleThomsonCosine(rng) < 0 {
			below++
		}
	}
	// CDF(0) = (4/3) / (8/3) = 1/2 by symmetry of 1+c^2.
	assert.InDelta(t, 0.5, float64(below)/n, 0.005)
}
