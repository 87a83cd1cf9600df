package absorption

import (
	"testing"

	"github.com/stretchr/testify/assert"

	sim "github.com/goupil-project/goupil/sim"
)

func buildFor(t *testing.T, symbol string, fraction float64) (*model, sim.ModelContext) {
	t.Helper()
	m := sim.MaterialDefinition{
		Name:       symbol,
		Components: []sim.MaterialComponent{{Element: symbol, Fraction: fraction}},
	}
	if err := m.Resolve(sim.DefaultElementTable()); err != nil {
		t.Fatalf("resolve %s: %v", symbol, err)
	}
	ctx := sim.ModelContext{
		Structure:           m.Structure(),
		ElectronsPerFormula: m.ElectronsPerFormula(),
		AtomsPerFormula:     1,
		EnergyMin:           0.01,
		EnergyMax:           3.0,
		Grid:                sim.GridSettings{EnergyNodes: 128, XNodes: 64},
	}
	mod, err := newModel(ctx)
	if err != nil {
		t.Fatalf("build absorption model: %v", err)
	}
	return mod, ctx
}

func TestCrossSection_DecreasesAboveEdges(t *testing.T) {
	m, _ := buildFor(t, "Pb", 1)
	// Above the K edge (88 keV for lead) the cross section falls steeply.
	prev := m.CrossSection(0.1)
	for _, nu := range []float64{0.2, 0.5, 1.0, 3.0} {
		s := m.CrossSection(nu)
		assert.Greater(t, s, 0.0, "nu=%g", nu)
		assert.Less(t, s, prev, "nu=%g", nu)
		prev = s
	}
}

func TestCrossSection_StrongZDependence(t *testing.T) {
	pb, _ := buildFor(t, "Pb", 1)
	c, _ := buildFor(t, "C", 1)
	// Photoabsorption scales like a high power of Z: lead dwarfs carbon.
	assert.Greater(t, pb.CrossSection(0.5)/c.CrossSection(0.5), 1e3)
}

func TestCrossSection_SmallAgainstComptonInAirAtMeV(t *testing.T) {
	air := sim.MaterialDefinition{
		Name: "Air",
		Components: []sim.MaterialComponent{
			{Element: "N", Fraction: 0.78},
			{Element: "O", Fraction: 0.21},
			{Element: "Ar", Fraction: 0.01},
		},
	}
	assert.NoError(t, air.Resolve(sim.DefaultElementTable()))
	ctx := sim.ModelContext{
		Structure:           air.Structure(),
		ElectronsPerFormula: air.ElectronsPerFormula(),
		AtomsPerFormula:     1,
		EnergyMin:           0.01,
		EnergyMax:           3.0,
		Grid:                sim.GridSettings{EnergyNodes: 128, XNodes: 64},
	}
	m, err := newModel(ctx)
	assert.NoError(t, err)

	// At 1 MeV in a low-Z medium, Compton dominates by orders of
	// magnitude; photoabsorption must be a trace channel.
	kn := ctx.ElectronsPerFormula * sim.ThomsonCrossSection
	assert.Less(t, m.CrossSection(1.0), kn*0.01)
}

func TestEvaluate_ShellThresholds(t *testing.T) {
	shells := []sim.Shell{
		{Name: "K", BindingEnergy: 0.088, MeanMomentum: 0.18, Occupancy: 2},
		{Name: "L1", BindingEnergy: 0.0159, MeanMomentum: 0.12, Occupancy: 8},
	}
	// Below every edge: nothing absorbs.
	assert.Equal(t, 0.0, evaluate(shells, 0.01))
	// Between the edges: only the L shell is active.
	between := evaluate(shells, 0.05)
	assert.Greater(t, between, 0.0)
	// Crossing the K edge adds the K contribution discontinuously.
	above := evaluate(shells, 0.0881)
	assert.Greater(t, above, evaluate(shells, 0.0879))
	assert.Greater(t, above, between)
}
