// Package geom provides the in-tree geometry backend: planar stratified
// sectors along a configurable axis, with uniform or exponential-gradient
// density models, plus the tracer that walks them. It satisfies the same
// Definition/Tracer contract external geometry back-ends plug into, so the
// kernel cannot tell them apart.
package geom

import (
	"math"

	sim "github.com/goupil-project/goupil/sim"
)

// Uniform is a constant-density model.
type Uniform struct {
	Rho float64 // g/cm^3
}

func (u Uniform) DensityAt(sim.Vector3) float64 { return u.Rho }
func (u Uniform) Majorant() float64             { return u.Rho }
func (u Uniform) Uniform() bool                 { return true }

// Exponential is a continuous exponential density gradient,
//
//	rho(r) = Rho0 * exp((r - Origin) . Axis / Lambda),
//
// the barometric-profile shape. Max bounds the density over the sector the
// model is attached to; the stratified builder derives it from the
// sector's slab bounds when the gradient axis is the stratification axis,
// otherwise the caller must supply it.
type Exponential struct {
	Rho0   float64     // g/cm^3 at Origin
	Origin sim.Vector3 // cm
	Axis   sim.Vector3 // unit vector
	Lambda float64     // cm; positive grows along Axis, negative decays
	Max    float64     // g/cm^3, majorant over the owning sector
}

func (e Exponential) DensityAt(r sim.Vector3) float64 {
	s := (r.Add(e.Origin.Negate())).Dot(e.Axis)
	return e.Rho0 * math.Exp(s/e.Lambda)
}

func (e Exponential) Majorant() float64 { return e.Max }
func (e Exponential) Uniform() bool     { return false }
