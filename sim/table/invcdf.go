package table

import "math"

// InverseCDF is a pre-tabulated inverse transform sampler: for each
// incoming-energy grid node nu_i, it stores x(y) = F^-1(y) on a uniform
// y-grid in [0,1], where x in (0,1) maps onto the DCS support via the
// log map x = ln(nu_f/nu_min(nu_i)) / ln(nu_max(nu_i)/nu_min(nu_i)).
// Sampling is then a single bilinear lookup, no runtime root-finding,
// which is what makes InverseTransform the fast, memory-heavy alternative
// to rejection sampling.
type InverseCDF struct {
	Grid2D
	Support []Support // one (nu_min, nu_max) per EnergyGrid node
}

// Support is the (nu_min, nu_max) DCS support bound at one incoming-energy
// grid node, per ComptonModel.DCSSupport.
type Support struct {
	Min, Max float64
}

// NewInverseCDF allocates an InverseCDF table with ny uniform y-samples per
// energy-grid node.
func NewInverseCDF(energyGrid LogGrid, ny int) InverseCDF {
	return InverseCDF{
		Grid2D:  NewGrid2D(energyGrid, ny),
		Support: make([]Support, energyGrid.N),
	}
}

// Sample returns nu_f for incoming energy nu_i and uniform variate y,
// converting the bilinearly-interpolated x back to energy space via the
// bracketing support bounds.
func (c InverseCDF) Sample(nuI, y float64) float64 {
	x := c.Bilinear(nuI, y)
	i, frac := c.EnergyGrid.Bracket(nuI)
	s0, s1 := c.Support[i], c.Support[i+1]
	lo := s0.Min*(1-frac) + s1.Min*frac
	hi := s0.Max*(1-frac) + s1.Max*frac
	// log-map x back onto [nu_min, nu_max].
	return lo * math.Pow(hi/lo, x)
}
