// Package plugin loads externally built geometry back-ends. A geometry
// plug-in is a Go shared library (built with -buildmode=plugin) exporting
// a single well-known symbol,
//
//	func GoupilInitialise() plugin.Table
//
// whose constructors hand back opaque geometry and tracer handles. The
// loader wraps those handles behind the sim.Definition and sim.Tracer
// interfaces, so a plug-in-backed geometry is indistinguishable from the
// in-tree one to the transport kernel. Close destroys the definition
// handle only; a tracer handle is destroyed only by that tracer's own
// Destroy method, which neither Close nor the transport kernel calls. A
// definition stays alive for the whole lifetime of any tracer built from it.
package plugin

import (
	"fmt"
	goplugin "plugin"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/geom"
)

// EntryPoint is the exported symbol every geometry plug-in must provide.
const EntryPoint = "GoupilInitialise"

// Float3 is the position/direction triple crossing the plug-in boundary.
type Float3 [3]float64

// WeightedElement is one (mole fraction, atomic number) pair of a
// plug-in material's composition.
type WeightedElement struct {
	Weight float64
	Z      int
}

// MaterialSpec is a plug-in material: a name and its composition.
type MaterialSpec struct {
	Name        string
	Composition []WeightedElement
}

// SectorSpec is a plug-in sector: a material index, a uniform density,
// and a description.
type SectorSpec struct {
	MaterialIndex int
	Density       float64 // g/cm^3
	Description   string
}

// Tracer is the ray-tracing handle a plug-in returns. Every method
// mirrors the kernel-facing contract; Destroy releases the handle.
type Tracer interface {
	Destroy()
	Reset(position, direction Float3)
	Sector() int
	Position() Float3
	Trace(maxLength float64) float64
	Update(length float64, direction Float3)
}

// Definition is the geometry handle a plug-in returns. It stays alive and
// immutable for the lifetime of every tracer built from it.
type Definition interface {
	Destroy()
	MaterialsLen() int
	SectorsLen() int
	GetMaterial(i int) MaterialSpec
	GetSector(i int) SectorSpec
	NewTracer() (Tracer, error)
}

// Table is the value-type function table returned by GoupilInitialise.
type Table struct {
	NewGeometryDefinition func() (Definition, error)
}

// Geometry adapts a loaded plug-in definition to sim.Definition. Close
// destroys the underlying handle; the caller must not use the geometry or
// any of its tracers afterwards.
type Geometry struct {
	def       Definition
	materials []*sim.MaterialDefinition
	sectors   []sim.Sector
}

// Load opens the shared library at path, resolves the entry point, and
// builds the geometry definition. Element symbols for the plug-in's
// Z-keyed compositions are resolved against elements.
func Load(path string, elements *sim.ElementTable) (*Geometry, error) {
	lib, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geometry plug-in %q: %w", path, err)
	}
	symbol, err := lib.Lookup(EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("geometry plug-in %q: %w", path, err)
	}
	initialise, ok := symbol.(func() Table)
	if !ok {
		return nil, fmt.Errorf("geometry plug-in %q: %s has type %T, want func() Table", path, EntryPoint, symbol)
	}
	table := initialise()
	if table.NewGeometryDefinition == nil {
		return nil, fmt.Errorf("geometry plug-in %q: initialise table has no geometry constructor", path)
	}
	def, err := table.NewGeometryDefinition()
	if err != nil {
		return nil, fmt.Errorf("geometry plug-in %q: new geometry definition: %w", path, err)
	}
	g := &Geometry{def: def}
	if err := g.resolve(elements); err != nil {
		def.Destroy()
		return nil, fmt.Errorf("geometry plug-in %q: %w", path, err)
	}
	return g, nil
}

func (g *Geometry) resolve(elements *sim.ElementTable) error {
	for i := 0; i < g.def.MaterialsLen(); i++ {
		spec := g.def.GetMaterial(i)
		def := sim.MaterialDefinition{Name: spec.Name, FractionOf: sim.MoleFraction}
		for _, we := range spec.Composition {
			e, ok := elements.ByZ(we.Z)
			if !ok {
				return fmt.Errorf("material %q: no element with Z=%d", spec.Name, we.Z)
			}
			def.Components = append(def.Components, sim.MaterialComponent{Element: e.Symbol, Fraction: we.Weight})
		}
		if err := def.Resolve(elements); err != nil {
			return err
		}
		g.materials = append(g.materials, &def)
	}
	for i := 0; i < g.def.SectorsLen(); i++ {
		spec := g.def.GetSector(i)
		if spec.MaterialIndex < 0 || spec.MaterialIndex >= len(g.materials) {
			return fmt.Errorf("sector %d references material %d of %d", i, spec.MaterialIndex, len(g.materials))
		}
		g.sectors = append(g.sectors, sim.Sector{
			MaterialIndex: spec.MaterialIndex,
			Density:       geom.Uniform{Rho: spec.Density},
			Description:   spec.Description,
		})
	}
	return nil
}

// Close destroys the plug-in definition handle.
func (g *Geometry) Close() { g.def.Destroy() }

func (g *Geometry) MaterialsLen() int { return len(g.materials) }
func (g *Geometry) SectorsLen() int   { return len(g.sectors) }

func (g *Geometry) Material(i int) *sim.MaterialDefinition {
	if i < 0 || i >= len(g.materials) {
		return nil
	}
	return g.materials[i]
}

func (g *Geometry) GetSector(i int) sim.Sector { return g.sectors[i] }

// NewTracer builds a plug-in tracer and wraps it. The wrapper's lifetime
// is tied to the geometry: destroy order is tracers first, then Close.
func (g *Geometry) NewTracer() sim.Tracer {
	t, err := g.def.NewTracer()
	if err != nil {
		return &tracer{geo: g, failed: err}
	}
	return &tracer{geo: g, handle: t}
}

// tracer adapts a plug-in tracer handle to sim.Tracer.
type tracer struct {
	geo    *Geometry
	handle Tracer
	failed error
	dir    sim.Vector3
	sector int
}

func (t *tracer) Reset(position, direction sim.Vector3) {
	if t.failed != nil {
		return
	}
	t.dir = direction
	t.handle.Reset(Float3(position), Float3(direction))
	t.sector = t.handle.Sector()
}

func (t *tracer) Sector() int { return t.sector }

func (t *tracer) Position() sim.Vector3 {
	if t.failed != nil {
		return sim.Vector3{}
	}
	return sim.Vector3(t.handle.Position())
}

func (t *tracer) Direction() sim.Vector3 { return t.dir }

func (t *tracer) Outside() bool { return t.sector < 0 }

func (t *tracer) Trace(maxLength float64) (float64, error) {
	if t.failed != nil {
		return 0, t.failed
	}
	return t.handle.Trace(maxLength), nil
}

func (t *tracer) Update(length float64, newDirection sim.Vector3) error {
	if t.failed != nil {
		return t.failed
	}
	t.dir = newDirection
	t.handle.Update(length, Float3(newDirection))
	t.sector = t.handle.Sector()
	return nil
}

func (t *tracer) DensityAt(sector int, position sim.Vector3) float64 {
	if sector < 0 || sector >= len(t.geo.sectors) {
		return 0
	}
	return t.geo.sectors[sector].Density.DensityAt(position)
}

// Destroy releases the underlying plug-in handle. The kernel never calls
// it; owners that build tracers directly must.
func (t *tracer) Destroy() {
	if t.handle != nil {
		t.handle.Destroy()
		t.handle = nil
	}
}
