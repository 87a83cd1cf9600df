package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func air() MaterialDefinition {
	return MaterialDefinition{
		Name: "Air",
		Components: []MaterialComponent{
			{Element: "N", Fraction: 0.78},
			{Element: "O", Fraction: 0.21},
			{Element: "Ar", Fraction: 0.01},
		},
		FractionOf: MoleFraction,
	}
}

func calcite() MaterialDefinition {
	return MaterialDefinition{
		Name: "CaCO3",
		Components: []MaterialComponent{
			{Element: "Ca", Fraction: 0.2},
			{Element: "C", Fraction: 0.2},
			{Element: "O", Fraction: 0.6},
		},
		FractionOf: MoleFraction,
	}
}

func TestMaterialDefinition_ResolveAir(t *testing.T) {
	m := air()
	assert.NoError(t, m.Resolve(DefaultElementTable()))

	// Mole-weighted molar mass per atom of the elemental composition.
	assert.InDelta(t, 14.68, m.MolarMass(), 0.05)

	assert.InDelta(t, 1.0, sum(m.MoleFractions()), 1e-12)
	assert.InDelta(t, 1.0, sum(m.MassFractions()), 1e-12)

	// N(7)*0.78 + O(8)*0.21 + Ar(18)*0.01 effective electrons.
	assert.InDelta(t, 7.32, m.ElectronsPerFormula(), 0.01)
}

func TestMaterialDefinition_MassFractionRoundTrip(t *testing.T) {
	byMole := air()
	assert.NoError(t, byMole.Resolve(DefaultElementTable()))

	byMass := MaterialDefinition{
		Name:       "AirByMass",
		FractionOf: MassFraction,
	}
	for i, c := range byMole.Components {
		byMass.Components = append(byMass.Components, MaterialComponent{
			Element:  c.Element,
			Fraction: byMole.MassFractions()[i],
		})
	}
	assert.NoError(t, byMass.Resolve(DefaultElementTable()))

	for i := range byMole.Components {
		assert.InDelta(t, byMole.MoleFractions()[i], byMass.MoleFractions()[i], 1e-9)
	}
	assert.InDelta(t, byMole.MolarMass(), byMass.MolarMass(), 1e-9)
}

func TestMaterialDefinition_ElectronDensity(t *testing.T) {
	m := air()
	assert.NoError(t, m.Resolve(DefaultElementTable()))

	// Air at sea level: ~3.6e20 electrons/cm^3.
	ne := m.ElectronNumberDensity(1.205e-3)
	assert.InEpsilon(t, 3.62e20, ne, 0.03)
}

func TestMaterialDefinition_Errors(t *testing.T) {
	empty := MaterialDefinition{Name: "Void"}
	err := empty.Resolve(DefaultElementTable())
	assert.Error(t, err)
	if ke, ok := err.(*KernelError); assert.True(t, ok) {
		assert.Equal(t, ErrTableBuild, ke.Kind)
	}

	unknown := MaterialDefinition{
		Name:       "Unobtanium",
		Components: []MaterialComponent{{Element: "Uo", Fraction: 1}},
	}
	assert.Error(t, unknown.Resolve(DefaultElementTable()))
}

func TestMaterialDefinition_StructureAggregation(t *testing.T) {
	m := calcite()
	assert.NoError(t, m.Resolve(DefaultElementTable()))

	st := m.Structure()
	assert.NotEmpty(t, st.Shells)

	occ := 0.0
	for _, sh := range st.Shells {
		occ += sh.Occupancy
		assert.GreaterOrEqual(t, sh.BindingEnergy, 0.0)
	}
	// Aggregated shell occupancy matches the effective electron count.
	assert.InDelta(t, m.ElectronsPerFormula(), occ, 1e-9)
	assert.False(t, math.IsNaN(st.ElectronDensity))
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}
