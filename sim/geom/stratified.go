package geom

import (
	"fmt"
	"math"

	sim "github.com/goupil-project/goupil/sim"
)

// Layer describes one slab of a stratified geometry: the half-open offset
// interval [Lower, Upper) along the stratification axis, the material
// filling it, and its density model. Lower may be -Inf and Upper +Inf for
// unbounded outer slabs.
type Layer struct {
	MaterialIndex int
	Lower, Upper  float64 // cm along the axis
	Density       sim.DensityModel
	Description   string
}

// Stratified is an immutable planar stratified geometry: an ordered stack
// of layers along a fixed axis, laterally unbounded. It implements
// sim.Definition.
type Stratified struct {
	axis      sim.Vector3
	materials []*sim.MaterialDefinition
	layers    []Layer
	bounds    []float64 // len(layers)+1 ascending offsets
}

// NewStratified builds a stratified geometry along axis. Layers must be
// given bottom-up with contiguous, strictly increasing bounds. An
// Exponential density model whose majorant is unset and whose gradient
// axis matches the stratification axis gets its majorant derived from the
// slab bounds.
func NewStratified(axis sim.Vector3, materials []*sim.MaterialDefinition, layers []Layer) (*Stratified, error) {
	a, ok := axis.Normalized()
	if !ok {
		return nil, fmt.Errorf("geom: stratification axis %v is degenerate", axis)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("geom: stratified geometry needs at least one layer")
	}
	g := &Stratified{axis: a, materials: materials}
	g.bounds = make([]float64, 0, len(layers)+1)
	g.bounds = append(g.bounds, layers[0].Lower)
	for i, l := range layers {
		if !(l.Upper > l.Lower) {
			return nil, fmt.Errorf("geom: layer %d bounds [%g, %g) are not increasing", i, l.Lower, l.Upper)
		}
		if i > 0 && l.Lower != layers[i-1].Upper {
			return nil, fmt.Errorf("geom: layer %d lower bound %g does not meet layer %d upper bound %g", i, l.Lower, i-1, layers[i-1].Upper)
		}
		if l.MaterialIndex < 0 || l.MaterialIndex >= len(materials) {
			return nil, fmt.Errorf("geom: layer %d references material %d of %d", i, l.MaterialIndex, len(materials))
		}
		if l.Density == nil {
			return nil, fmt.Errorf("geom: layer %d has no density model", i)
		}
		if exp, isExp := l.Density.(Exponential); isExp && exp.Max == 0 {
			m, err := slabMajorant(exp, a, l.Lower, l.Upper)
			if err != nil {
				return nil, fmt.Errorf("geom: layer %d: %w", i, err)
			}
			exp.Max = m
			l.Density = exp
		}
		g.layers = append(g.layers, l)
		g.bounds = append(g.bounds, l.Upper)
	}
	return g, nil
}

// slabMajorant bounds an exponential gradient over a slab. It only works
// when the gradient axis is (anti)parallel to the stratification axis;
// any other orientation has no finite bound over the laterally unbounded
// slab and the caller must set Max explicitly.
func slabMajorant(e Exponential, axis sim.Vector3, lower, upper float64) (float64, error) {
	dot := e.Axis.Dot(axis)
	if math.Abs(math.Abs(dot)-1) > 1e-9 {
		return 0, fmt.Errorf("exponential gradient axis %v is oblique to the stratification axis; set Max explicitly", e.Axis)
	}
	at := func(offset float64) float64 {
		if math.IsInf(offset, 0) {
			return 0 // decaying toward the unbounded side
		}
		return e.DensityAt(axis.Scale(offset))
	}
	lo, hi := at(lower), at(upper)
	m := math.Max(lo, hi)
	if !(m > 0) || math.IsInf(m, 0) {
		return 0, fmt.Errorf("exponential gradient is unbounded over slab [%g, %g)", lower, upper)
	}
	return m, nil
}

// Axis returns the (unit) stratification axis.
func (g *Stratified) Axis() sim.Vector3 { return g.axis }

func (g *Stratified) MaterialsLen() int { return len(g.materials) }
func (g *Stratified) SectorsLen() int   { return len(g.layers) }

func (g *Stratified) Material(i int) *sim.MaterialDefinition {
	if i < 0 || i >= len(g.materials) {
		return nil
	}
	return g.materials[i]
}

func (g *Stratified) GetSector(i int) sim.Sector {
	l := g.layers[i]
	return sim.Sector{MaterialIndex: l.MaterialIndex, Density: l.Density, Description: l.Description}
}

// SectorIndexOf returns the index of the sector whose description matches.
func (g *Stratified) SectorIndexOf(description string) (int, bool) {
	for i, l := range g.layers {
		if l.Description == description {
			return i, true
		}
	}
	return 0, false
}

// NewTracer returns a fresh planar tracer bound to this geometry.
func (g *Stratified) NewTracer() sim.Tracer {
	return &planarTracer{geo: g, sector: -1, outside: true}
}

// locate returns the layer index containing offset, or -1 when outside
// the stack.
func (g *Stratified) locate(offset float64) int {
	if offset < g.bounds[0] || offset >= g.bounds[len(g.bounds)-1] {
		return -1
	}
	lo, hi := 0, len(g.layers)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offset >= g.bounds[mid] {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
