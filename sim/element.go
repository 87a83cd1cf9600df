package sim

import (
	"encoding/json"
	"fmt"
	"os"
)

// Shell describes one electron shell's contribution to Compton physics: its
// binding energy, the average momentum of its electrons (used by the
// Penelope impulse approximation), and how many electrons occupy it.
type Shell struct {
	Name          string  `json:"name"`           // e.g. "K", "L1"
	BindingEnergy float64 `json:"binding_energy"` // MeV
	MeanMomentum  float64 `json:"mean_momentum"`  // MeV/c, Compton-profile width parameter
	Occupancy     float64 `json:"occupancy"`      // electrons in this shell
}

// AtomicElement is an immutable atomic record: atomic number, symbol, atomic
// mass, and its full shell structure.
type AtomicElement struct {
	Z      int     `json:"z"`
	Symbol string  `json:"symbol"`
	A      float64 `json:"a"` // g/mol
	Shells []Shell `json:"shells"`
}

// ElectronCount returns the total number of electrons (== Z for a neutral
// atom; the sum of shell occupancies is used instead, for robustness against
// hand-trimmed tables).
func (e *AtomicElement) ElectronCount() float64 {
	total := 0.0
	for _, s := range e.Shells {
		total += s.Occupancy
	}
	if total == 0 {
		return float64(e.Z)
	}
	return total
}

// ElementTable is a keyed lookup over AtomicElement records, consumed (not
// built) by the core: atomic-data ingestion happens elsewhere, the core
// only needs Z/symbol lookup.
type ElementTable struct {
	bySymbol map[string]*AtomicElement
	byZ      map[int]*AtomicElement
}

// NewElementTable builds a lookup table from a slice of elements.
func NewElementTable(elements []AtomicElement) *ElementTable {
	t := &ElementTable{
		bySymbol: make(map[string]*AtomicElement, len(elements)),
		byZ:      make(map[int]*AtomicElement, len(elements)),
	}
	for i := range elements {
		e := &elements[i]
		t.bySymbol[e.Symbol] = e
		t.byZ[e.Z] = e
	}
	return t
}

// BySymbol looks up an element by chemical symbol (e.g. "Pb").
func (t *ElementTable) BySymbol(symbol string) (*AtomicElement, bool) {
	e, ok := t.bySymbol[symbol]
	return e, ok
}

// ByZ looks up an element by atomic number.
func (t *ElementTable) ByZ(z int) (*AtomicElement, bool) {
	e, ok := t.byZ[z]
	return e, ok
}

// LoadElementTable reads a JSON array of AtomicElement records from path.
func LoadElementTable(path string) (*ElementTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read element table %q: %w", path, err)
	}
	var elements []AtomicElement
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("parse element table JSON %q: %w", path, err)
	}
	return NewElementTable(elements), nil
}

// DefaultElementTable returns a small built-in table covering the elements
// needed to define common transport media (air, water, bone-equivalent
// materials, lead shielding) without requiring an external ingestion step.
func DefaultElementTable() *ElementTable {
	return NewElementTable([]AtomicElement{
		{Z: 1, Symbol: "H", A: 1.008, Shells: []Shell{
			{Name: "K", BindingEnergy: 13.6e-6, MeanMomentum: 0.0, Occupancy: 1},
		}},
		{Z: 6, Symbol: "C", A: 12.011, Shells: []Shell{
			{Name: "K", BindingEnergy: 2.84e-4, MeanMomentum: 0.02113, Occupancy: 2},
			{Name: "L1", BindingEnergy: 1.1e-5, MeanMomentum: 0.009163, Occupancy: 4},
		}},
		{Z: 7, Symbol: "N", A: 14.007, Shells: []Shell{
			{Name: "K", BindingEnergy: 4.0e-4, MeanMomentum: 0.02319, Occupancy: 2},
			{Name: "L1", BindingEnergy: 1.5e-5, MeanMomentum: 0.0101, Occupancy: 5},
		}},
		{Z: 8, Symbol: "O", A: 15.999, Shells: []Shell{
			{Name: "K", BindingEnergy: 5.38e-4, MeanMomentum: 0.02506, Occupancy: 2},
			{Name: "L1", BindingEnergy: 1.4e-5, MeanMomentum: 0.01085, Occupancy: 6},
		}},
		{Z: 11, Symbol: "Na", A: 22.990, Shells: []Shell{
			{Name: "K", BindingEnergy: 1.0721e-3, MeanMomentum: 0.03216, Occupancy: 2},
			{Name: "L1", BindingEnergy: 6.3e-5, MeanMomentum: 0.01758, Occupancy: 8},
			{Name: "M1", BindingEnergy: 5.1e-6, MeanMomentum: 0.006919, Occupancy: 1},
		}},
		{Z: 12, Symbol: "Mg", A: 24.305, Shells: []Shell{
			{Name: "K", BindingEnergy: 1.3050e-3, MeanMomentum: 0.03366, Occupancy: 2},
			{Name: "L1", BindingEnergy: 8.9e-5, MeanMomentum: 0.01889, Occupancy: 8},
			{Name: "M1", BindingEnergy: 7.6e-6, MeanMomentum: 0.00748, Occupancy: 2},
		}},
		{Z: 13, Symbol: "Al", A: 26.982, Shells: []Shell{
			{Name: "K", BindingEnergy: 1.560e-3, MeanMomentum: 0.03497, Occupancy: 2},
			{Name: "L1", BindingEnergy: 1.18e-4, MeanMomentum: 0.0202, Occupancy: 8},
			{Name: "M1", BindingEnergy: 1.0e-5, MeanMomentum: 0.008041, Occupancy: 3},
		}},
		{Z: 14, Symbol: "Si", A: 28.085, Shells: []Shell{
			{Name: "K", BindingEnergy: 1.839e-3, MeanMomentum: 0.03628, Occupancy: 2},
			{Name: "L1", BindingEnergy: 1.49e-4, MeanMomentum: 0.02132, Occupancy: 8},
			{Name: "M1", BindingEnergy: 1.49e-5, MeanMomentum: 0.008789, Occupancy: 4},
		}},
		{Z: 15, Symbol: "P", A: 30.974, Shells: []Shell{
			{Name: "K", BindingEnergy: 2.1455e-3, MeanMomentum: 0.03759, Occupancy: 2},
			{Name: "L1", BindingEnergy: 1.89e-4, MeanMomentum: 0.02244, Occupancy: 8},
			{Name: "M1", BindingEnergy: 1.0e-5, MeanMomentum: 0.00935, Occupancy: 5},
		}},
		{Z: 16, Symbol: "S", A: 32.06, Shells: []Shell{
			{Name: "K", BindingEnergy: 2.472e-3, MeanMomentum: 0.0389, Occupancy: 2},
			{Name: "L1", BindingEnergy: 2.29e-4, MeanMomentum: 0.02356, Occupancy: 8},
			{Name: "M1", BindingEnergy: 1.0e-5, MeanMomentum: 0.0101, Occupancy: 6},
		}},
		{Z: 17, Symbol: "Cl", A: 35.45, Shells: []Shell{
			{Name: "K", BindingEnergy: 2.822e-3, MeanMomentum: 0.04021, Occupancy: 2},
			{Name: "L1", BindingEnergy: 2.70e-4, MeanMomentum: 0.02468, Occupancy: 8},
			{Name: "M1", BindingEnergy: 1.3e-5, MeanMomentum: 0.01066, Occupancy: 7},
		}},
		{Z: 18, Symbol: "Ar", A: 39.948, Shells: []Shell{
			{Name: "K", BindingEnergy: 3.206e-3, MeanMomentum: 0.04151, Occupancy: 2},
			{Name: "L1", BindingEnergy: 3.26e-4, MeanMomentum: 0.02581, Occupancy: 8},
			{Name: "M1", BindingEnergy: 1.59e-5, MeanMomentum: 0.01141, Occupancy: 8},
		}},
		{Z: 19, Symbol: "K", A: 39.098, Shells: []Shell{
			{Name: "K", BindingEnergy: 3.608e-3, MeanMomentum: 0.04282, Occupancy: 2},
			{Name: "L1", BindingEnergy: 3.79e-4, MeanMomentum: 0.02693, Occupancy: 8},
			{Name: "M1", BindingEnergy: 3.4e-5, MeanMomentum: 0.01253, Occupancy: 8},
			{Name: "N1", BindingEnergy: 4.0e-6, MeanMomentum: 0.00561, Occupancy: 1},
		}},
		{Z: 20, Symbol: "Ca", A: 40.078, Shells: []Shell{
			{Name: "K", BindingEnergy: 4.038e-3, MeanMomentum: 0.04413, Occupancy: 2},
			{Name: "L1", BindingEnergy: 4.38e-4, MeanMomentum: 0.02805, Occupancy: 8},
			{Name: "M1", BindingEnergy: 4.4e-5, MeanMomentum: 0.01328, Occupancy: 8},
			{Name: "N1", BindingEnergy: 6.1e-6, MeanMomentum: 0.006171, Occupancy: 2},
		}},
		{Z: 26, Symbol: "Fe", A: 55.845, Shells: []Shell{
			{Name: "K", BindingEnergy: 7.112e-3, MeanMomentum: 0.05292, Occupancy: 2},
			{Name: "L1", BindingEnergy: 8.46e-4, MeanMomentum: 0.03497, Occupancy: 8},
			{Name: "M1", BindingEnergy: 9.1e-5, MeanMomentum: 0.01814, Occupancy: 8},
			{Name: "N1", BindingEnergy: 7.1e-6, MeanMomentum: 0.007293, Occupancy: 6},
		}},
		{Z: 29, Symbol: "Cu", A: 63.546, Shells: []Shell{
			{Name: "K", BindingEnergy: 8.979e-3, MeanMomentum: 0.05816, Occupancy: 2},
			{Name: "L1", BindingEnergy: 1.096e-3, MeanMomentum: 0.0389, Occupancy: 8},
			{Name: "M1", BindingEnergy: 1.22e-4, MeanMomentum: 0.02057, Occupancy: 8},
			{Name: "N1", BindingEnergy: 7.7e-6, MeanMomentum: 0.006732, Occupancy: 11},
		}},
		{Z: 82, Symbol: "Pb", A: 207.2, Shells: []Shell{
			{Name: "K", BindingEnergy: 8.8005e-2, MeanMomentum: 0.1756, Occupancy: 2},
			{Name: "L1", BindingEnergy: 1.5861e-2, MeanMomentum: 0.1227, Occupancy: 8},
			{Name: "M1", BindingEnergy: 3.851e-3, MeanMomentum: 0.07237, Occupancy: 18},
			{Name: "N1", BindingEnergy: 8.96e-4, MeanMomentum: 0.03703, Occupancy: 32},
			{Name: "O1", BindingEnergy: 1.47e-4, MeanMomentum: 0.01664, Occupancy: 18},
			{Name: "P1", BindingEnergy: 9.0e-6, MeanMomentum: 0.00561, Occupancy: 4},
		}},
	})
}
