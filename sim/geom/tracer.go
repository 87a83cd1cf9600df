package geom

import (
	"fmt"
	"math"

	sim "github.com/goupil-project/goupil/sim"
)

// boundaryNudge is the relative offset applied when locating a point that
// sits exactly on an interface, biased along the travel direction so the
// cursor lands in the sector it is entering.
const boundaryNudge = 1e-9

// planarTracer walks a Stratified geometry. Not thread-safe: each worker
// builds its own via Stratified.NewTracer.
type planarTracer struct {
	geo     *Stratified
	pos     sim.Vector3
	dir     sim.Vector3
	sector  int
	outside bool
}

func (t *planarTracer) Reset(position, direction sim.Vector3) {
	t.pos = position
	t.dir = direction
	t.relocate()
}

// relocate recomputes the sector from the current position, nudged along
// the travel direction so boundary-seated cursors resolve into the sector
// ahead of them.
func (t *planarTracer) relocate() {
	offset := t.pos.Dot(t.geo.axis)
	dirAxis := t.dir.Dot(t.geo.axis)
	scale := math.Abs(offset)
	if scale < 1 {
		scale = 1
	}
	probe := offset
	if dirAxis != 0 {
		probe += math.Copysign(boundaryNudge*scale, dirAxis)
	}
	t.sector = t.geo.locate(probe)
	t.outside = t.sector < 0
}

func (t *planarTracer) Sector() int            { return t.sector }
func (t *planarTracer) Position() sim.Vector3  { return t.pos }
func (t *planarTracer) Direction() sim.Vector3 { return t.dir }
func (t *planarTracer) Outside() bool          { return t.outside }

func (t *planarTracer) Trace(maxLength float64) (float64, error) {
	if maxLength < 0 || math.IsNaN(maxLength) {
		return 0, fmt.Errorf("geom: trace called with max length %g", maxLength)
	}
	if t.outside {
		return 0, fmt.Errorf("geom: trace called outside the geometry")
	}
	dirAxis := t.dir.Dot(t.geo.axis)
	if dirAxis == 0 {
		// Parallel to the stratification: never crosses an interface.
		return maxLength, nil
	}
	offset := t.pos.Dot(t.geo.axis)
	var target float64
	if dirAxis > 0 {
		target = t.geo.bounds[t.sector+1]
	} else {
		target = t.geo.bounds[t.sector]
	}
	if math.IsInf(target, 0) {
		return maxLength, nil
	}
	d := (target - offset) / dirAxis
	if d < 0 {
		d = 0
	}
	if d > maxLength {
		d = maxLength
	}
	return d, nil
}

func (t *planarTracer) Update(length float64, newDirection sim.Vector3) error {
	if length < 0 || math.IsNaN(length) {
		return fmt.Errorf("geom: update called with length %g", length)
	}
	t.pos = t.pos.Add(t.dir.Scale(length))
	t.dir = newDirection
	t.relocate()
	return nil
}

func (t *planarTracer) DensityAt(sector int, position sim.Vector3) float64 {
	if sector < 0 || sector >= len(t.geo.layers) {
		return 0
	}
	return t.geo.layers[sector].Density.DensityAt(position)
}
