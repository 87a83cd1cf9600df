package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// FractionKind selects whether a MaterialComponent's Fraction is a mole
// fraction or a mass fraction.
type FractionKind int

const (
	MoleFraction FractionKind = iota
	MassFraction
)

// MaterialComponent is one (element, fraction) pair in a material's
// composition.
type MaterialComponent struct {
	Element  string  `yaml:"element"`
	Fraction float64 `yaml:"fraction"`
}

// ElectronicStructure aggregates shell data across a material's elements,
// weighted by abundance, for use by the Penelope impulse-approximation
// model and by bound-electron corrections in the scattering-function model.
type ElectronicStructure struct {
	Shells          []Shell // one aggregated entry per (element, shell) pair
	ElectronDensity float64 // electrons per MaterialDefinition formula unit
}

// MaterialDefinition is a named composition of elements. It derives molar
// mass, mass/mole fractions, effective electron count, and an aggregated
// ElectronicStructure, all pure functions of the composition and the
// element table, computed once by Resolve.
type MaterialDefinition struct {
	Name       string
	Components []MaterialComponent
	FractionOf FractionKind

	// derived, filled by Resolve
	molarMass           float64
	moleFracs           []float64
	massFracs           []float64
	elements            []*AtomicElement
	electronsPerFormula float64
	structure           ElectronicStructure
}

// Resolve computes the derived quantities from Components against table.
// Must be called once before the material can be used to build physics
// tables; idempotent.
func (m *MaterialDefinition) Resolve(table *ElementTable) error {
	if len(m.Components) == 0 {
		return newTableBuildError("resolve material "+m.Name, fmt.Errorf("empty composition"))
	}
	m.elements = make([]*AtomicElement, len(m.Components))
	raw := make([]float64, len(m.Components))
	for i, c := range m.Components {
		e, ok := table.BySymbol(c.Element)
		if !ok {
			return newTableBuildError("resolve material "+m.Name, fmt.Errorf("unknown element %q", c.Element))
		}
		m.elements[i] = e
		raw[i] = c.Fraction
	}

	switch m.FractionOf {
	case MassFraction:
		m.massFracs = normalized(raw)
		m.moleFracs = make([]float64, len(raw))
		denom := 0.0
		for i, e := range m.elements {
			m.moleFracs[i] = m.massFracs[i] / e.A
			denom += m.moleFracs[i]
		}
		floats.Scale(1/denom, m.moleFracs)
	default: // MoleFraction
		m.moleFracs = normalized(raw)
		m.massFracs = make([]float64, len(raw))
		for i, e := range m.elements {
			m.massFracs[i] = m.moleFracs[i] * e.A
		}
		total := floats.Sum(m.massFracs)
		floats.Scale(1/total, m.massFracs)
	}

	m.molarMass = 0
	for i, e := range m.elements {
		m.molarMass += m.moleFracs[i] * e.A
	}

	m.electronsPerFormula = 0
	var shells []Shell
	for i, e := range m.elements {
		n := m.moleFracs[i] * e.ElectronCount()
		m.electronsPerFormula += n
		for _, sh := range e.Shells {
			shells = append(shells, Shell{
				Name:          fmt.Sprintf("%s-%s", e.Symbol, sh.Name),
				BindingEnergy: sh.BindingEnergy,
				MeanMomentum:  sh.MeanMomentum,
				Occupancy:     sh.Occupancy * m.moleFracs[i],
			})
		}
	}
	m.structure = ElectronicStructure{Shells: shells, ElectronDensity: m.electronsPerFormula}
	return nil
}

// normalized returns x scaled so its entries sum to 1.
func normalized(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	total := floats.Sum(out)
	if total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}

// MolarMass returns the material's molar mass in g/mol.
func (m *MaterialDefinition) MolarMass() float64 { return m.molarMass }

// MoleFractions returns the per-element mole fractions, in Components order.
func (m *MaterialDefinition) MoleFractions() []float64 { return m.moleFracs }

// MassFractions returns the per-element mass fractions, in Components order.
func (m *MaterialDefinition) MassFractions() []float64 { return m.massFracs }

// Elements returns the resolved AtomicElement for each component, in
// Components order.
func (m *MaterialDefinition) Elements() []*AtomicElement { return m.elements }

// ElectronsPerFormula returns the effective electron count per formula unit.
func (m *MaterialDefinition) ElectronsPerFormula() float64 { return m.electronsPerFormula }

// Structure returns the aggregated ElectronicStructure.
func (m *MaterialDefinition) Structure() ElectronicStructure { return m.structure }

// avogadro is Avogadro's number, mol^-1.
const avogadro = 6.02214076e23

// ElectronNumberDensity returns N_A * rho / M * Z_eff, the electron number
// density at the given mass density, in electrons/cm^3.
func (m *MaterialDefinition) ElectronNumberDensity(densityGramsPerCm3 float64) float64 {
	return avogadro * densityGramsPerCm3 / m.molarMass * m.electronsPerFormula
}

// AtomNumberDensity returns N_A * rho / M, the atom (formula unit) number
// density at the given mass density, in atoms/cm^3.
func (m *MaterialDefinition) AtomNumberDensity(densityGramsPerCm3 float64) float64 {
	return avogadro * densityGramsPerCm3 / m.molarMass
}
