package table

// CrossSection1D is a tabulated sigma(nu) curve on a LogGrid, linearly
// interpolated in log(nu), the common shape shared by the total Compton,
// Rayleigh, and absorption cross sections.
type CrossSection1D struct {
	Grid   LogGrid
	Values []float64 // len == Grid.N
}

// NewCrossSection1D allocates a zeroed table over grid.
func NewCrossSection1D(grid LogGrid) CrossSection1D {
	return CrossSection1D{Grid: grid, Values: make([]float64, grid.N)}
}

// Eval linearly interpolates the table at energy nu (MeV), clamping to the
// grid's endpoint value outside [Grid.Min, Grid.Max].
func (t CrossSection1D) Eval(nu float64) float64 {
	i, frac := t.Grid.Bracket(nu)
	return t.Values[i]*(1-frac) + t.Values[i+1]*frac
}

// Fill evaluates f at every grid node.
func (t CrossSection1D) Fill(f func(nu float64) float64) {
	for i := 0; i < t.Grid.N; i++ {
		t.Values[i] = f(t.Grid.Node(i))
	}
}
