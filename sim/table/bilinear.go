package table

// Grid2D is a contiguous row-major 2-D table over (energy-grid i, x-grid j).
// Row i spans the Compton DCS support mapped onto x in (0,1) via
// x = ln(nu_f/nu_min(nu_i)) / ln(nu_max(nu_i)/nu_min(nu_i)).
type Grid2D struct {
	EnergyGrid LogGrid
	Nx         int
	Values     []float64 // row-major, len == EnergyGrid.N * Nx
}

// NewGrid2D allocates a zeroed Grid2D.
func NewGrid2D(energyGrid LogGrid, nx int) Grid2D {
	return Grid2D{EnergyGrid: energyGrid, Nx: nx, Values: make([]float64, energyGrid.N*nx)}
}

// At returns Values[i*Nx+j].
func (g Grid2D) At(i, j int) float64 { return g.Values[i*g.Nx+j] }

// Set stores v at Values[i*Nx+j].
func (g Grid2D) Set(i, j int, v float64) { g.Values[i*g.Nx+j] = v }

// Row returns the j-th axis row for energy-grid index i as a sub-slice
// (shares storage with Values).
func (g Grid2D) Row(i int) []float64 { return g.Values[i*g.Nx : (i+1)*g.Nx] }

// Bilinear interpolates Values at (energyNu, x), x in [0, 1], using the
// standard four-corner bilinear formula on the log(nu) x linear(x) grid.
func (g Grid2D) Bilinear(energyNu, x float64) float64 {
	i, tE := g.EnergyGrid.Bracket(energyNu)
	xt := x * float64(g.Nx-1)
	if xt < 0 {
		xt = 0
	}
	if xt > float64(g.Nx-1) {
		xt = float64(g.Nx - 1)
	}
	j := int(xt)
	if j >= g.Nx-1 {
		j = g.Nx - 2
	}
	tX := xt - float64(j)

	v00 := g.At(i, j)
	v01 := g.At(i, j+1)
	v10 := g.At(i+1, j)
	v11 := g.At(i+1, j+1)

	v0 := v00*(1-tX) + v01*tX
	v1 := v10*(1-tX) + v11*tX
	return v0*(1-tE) + v1*tE
}
