package sim

// DensityModel answers a local mass density query. It is the opaque
// callback the core never inspects the internals of, only calls at a
// position.
type DensityModel interface {
	// DensityAt returns the mass density in g/cm^3 at position.
	DensityAt(position Vector3) float64
	// Majorant returns an upper bound on DensityAt over the whole sector,
	// used by the kernel's Woodcock/null-collision branch when the
	// density is not piecewise-constant.
	Majorant() float64
	// Uniform reports whether DensityAt is constant, letting the kernel
	// skip the majorant/null-collision machinery entirely.
	Uniform() bool
}

// Sector is a connected geometric region of uniform material composition
// and a (possibly position-dependent) density model.
type Sector struct {
	MaterialIndex int
	Density       DensityModel
	Description   string
}

// Definition is the immutable, ordered geometry: a list of materials and
// sectors, referenced by index. The kernel and registry depend only on this
// read-only contract; concrete layouts (stratified layers, topographic
// interfaces, externally loaded backends) are supplied by callers.
type Definition interface {
	MaterialsLen() int
	SectorsLen() int
	Material(i int) *MaterialDefinition
	GetSector(i int) Sector
	// NewTracer creates a fresh, independent Tracer bound to this
	// Definition. Tracers are not thread-safe individually but distinct
	// tracers (e.g. one per worker) are fully independent.
	NewTracer() Tracer
}

// Tracer is a mutable ray-tracing cursor bound to a Definition. The kernel
// depends only on this capability set:
//
//	reset(position, direction)
//	sector() -> index
//	position() -> 3-vector
//	trace(max_length) -> length
//	update(length, new_direction)
//	density_at(sector, position) -> g/cm^3
type Tracer interface {
	// Reset seats the cursor at position with the given direction and sets
	// the current sector by point location.
	Reset(position, direction Vector3)
	// Sector returns the current sector index. Defined after Reset and
	// after every Update that stays inside the domain.
	Sector() int
	// Position returns the cursor's current position.
	Position() Vector3
	// Direction returns the cursor's current direction.
	Direction() Vector3
	// Trace returns the distance to the next interface along the current
	// direction, clipped to maxLength. Never exceeds either bound.
	Trace(maxLength float64) (float64, error)
	// Update advances by length and installs newDirection, recomputing the
	// current sector. Must be called after every step, geometric or
	// interaction-driven.
	Update(length float64, newDirection Vector3) error
	// Outside reports whether the cursor has left the outermost domain.
	// Valid only immediately after an Update whose Trace call returned the
	// distance to the exit.
	Outside() bool
	// DensityAt returns the local density in the given sector at position,
	// looked up from that sector's density model.
	DensityAt(sector int, position Vector3) float64
}
