package sim

import (
	"fmt"
	"log"
	"math"
)

// TraceSteps turns on per-step trace output for debugging a single
// trajectory. Off by default; far too verbose for batches.
var TraceSteps bool

// lineTolerance is the relative tolerance for "the walked energy sits on a
// volume-source line". Constrained Compton events assign the line value
// exactly, so this only matters for caller-initialized states.
const lineTolerance = 1e-9

// rotateDirection rotates the unit vector d by the polar angle acos(cosTheta)
// about itself, with azimuth phi measured in a frame transverse to d. The
// transverse frame construction switches pivot axis near the poles so the
// update stays numerically stable at |d_z| close to 1.
func rotateDirection(d Vector3, cosTheta, phi float64) (Vector3, bool) {
	sin2 := 1 - cosTheta*cosTheta
	if sin2 < 0 {
		sin2 = 0
	}
	sinTheta := math.Sqrt(sin2)

	// Transverse basis (u, v) with u ⟂ d built from the smallest component
	// of d, avoiding the degenerate cross product at the poles.
	var pivot Vector3
	ax, ay, az := math.Abs(d[0]), math.Abs(d[1]), math.Abs(d[2])
	switch {
	case ax <= ay && ax <= az:
		pivot = Vector3{1, 0, 0}
	case ay <= az:
		pivot = Vector3{0, 1, 0}
	default:
		pivot = Vector3{0, 0, 1}
	}
	u := Vector3{
		d[1]*pivot[2] - d[2]*pivot[1],
		d[2]*pivot[0] - d[0]*pivot[2],
		d[0]*pivot[1] - d[1]*pivot[0],
	}
	u, ok := u.Normalized()
	if !ok {
		return d, false
	}
	v := Vector3{
		d[1]*u[2] - d[2]*u[1],
		d[2]*u[0] - d[0]*u[2],
		d[0]*u[1] - d[1]*u[0],
	}

	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
	out := d.Scale(cosTheta).
		Add(u.Scale(sinTheta * cosPhi)).
		Add(v.Scale(sinTheta * sinPhi))
	return out.Normalized()
}

// kernel is the per-trajectory transport context: one tracer, one RNG
// substream, and the mode dispatch resolved before the loop starts.
type kernel struct {
	settings *TransportSettings
	geometry Definition
	records  []*MaterialRecord
	tracer   Tracer
	rng      *Stream
	sampler  processSampler
	walkSign float64 // +1 forward, -1 backward
}

// processSampler dispatches the collision-vertex physics for one transport
// mode. The step loop is mode agnostic; only the vertex differs: which
// channels exist, which sampler runs, and which terminations can fire.
type processSampler interface {
	// channelCrossSection returns the total microscopic cross section of
	// the sampled channels, cm^2 per formula unit, at energy nu.
	channelCrossSection(rec *MaterialRecord, nu float64) float64
	// collide runs one collision vertex: picks a channel, mutates the
	// state, and returns the terminal status (StatusLive to continue).
	collide(k *kernel, st *PhotonState, rec *MaterialRecord, density float64) (Status, error)
}

// scatter applies a sampled scattering cosine to the state's direction
// with a uniform azimuth, and re-seats the tracer's direction.
func (k *kernel) scatter(st *PhotonState, cosTheta float64) error {
	phi := k.rng.Azimuth()
	d, ok := rotateDirection(st.Direction, cosTheta, phi)
	if !ok {
		return newNumericalError("transport", fmt.Errorf("direction renormalization failed at %v", st.Direction))
	}
	st.Direction = d
	return k.tracer.Update(0, d.Scale(k.walkSign))
}

// onSourceLine reports whether nu sits on one of the configured
// volume-source lines.
func (k *kernel) onSourceLine(nu float64) bool {
	for _, line := range k.settings.SourceEnergies {
		if math.Abs(nu-line) <= lineTolerance*line {
			return true
		}
	}
	return false
}

// nearestCrossedLine returns the volume-source line crossed by the energy
// jump nuF -> nuI, choosing the smallest absolute energy distance from nuF
// when several lines fall inside the jump.
func (k *kernel) nearestCrossedLine(nuF, nuI float64) (float64, bool) {
	best, found := 0.0, false
	for _, line := range k.settings.SourceEnergies {
		if line <= nuF || line > nuI {
			continue
		}
		if !found || line-nuF < best-nuF {
			best, found = line, true
		}
	}
	return best, found
}

// === Forward mode ===

// forwardSampler carries the one settings bit the forward vertex needs
// resolved ahead of the loop: whether absorption is a discrete channel.
type forwardSampler struct {
	discreteAbsorption bool
}

func (f forwardSampler) channelCrossSection(rec *MaterialRecord, nu float64) float64 {
	sigma := rec.Compton.CrossSection(nu)
	if rec.Rayleigh != nil {
		sigma += rec.Rayleigh.CrossSection(nu)
	}
	if f.discreteAbsorption && rec.Absorption != nil {
		sigma += rec.Absorption.CrossSection(nu)
	}
	return sigma
}

func (f forwardSampler) collide(k *kernel, st *PhotonState, rec *MaterialRecord, density float64) (Status, error) {
	nu := st.Energy
	sigmaC := rec.Compton.CrossSection(nu)
	sigmaR := 0.0
	if rec.Rayleigh != nil {
		sigmaR = rec.Rayleigh.CrossSection(nu)
	}
	sigmaA := 0.0
	if f.discreteAbsorption && rec.Absorption != nil {
		sigmaA = rec.Absorption.CrossSection(nu)
	}
	total := sigmaC + sigmaR + sigmaA
	if total <= 0 {
		return StatusLive, nil
	}

	u := k.rng.Float64() * total
	switch {
	case u < sigmaA:
		return StatusAbsorbed, nil
	case u < sigmaA+sigmaR:
		smp := rec.Rayleigh.Sample(nu, k.rng)
		if err := k.scatter(st, smp.CosTheta); err != nil {
			return StatusLive, err
		}
		return StatusLive, nil
	default:
		smp := rec.Compton.Sample(nu, k.rng)
		st.Energy = smp.Energy
		st.Weight *= smp.Weight
		if err := k.scatter(st, smp.CosTheta); err != nil {
			return StatusLive, err
		}
		if st.Energy < k.settings.EnergyMin {
			return StatusEnergyMin, nil
		}
		if st.Energy > k.settings.EnergyMax {
			return StatusEnergyMax, nil
		}
		return StatusLive, nil
	}
}

// === Backward mode ===

type backwardSampler struct{}

func (backwardSampler) channelCrossSection(rec *MaterialRecord, nu float64) float64 {
	// Absorption is never a discrete channel on the backward walk; it
	// only contributes the continuous survival factor.
	sigma := rec.Compton.CrossSection(nu)
	if rec.Rayleigh != nil {
		sigma += rec.Rayleigh.CrossSection(nu)
	}
	return sigma
}

func (b backwardSampler) collide(k *kernel, st *PhotonState, rec *MaterialRecord, density float64) (Status, error) {
	nu := st.Energy
	sigmaTot := b.channelCrossSection(rec, nu)
	if sigmaTot <= 0 {
		return StatusLive, nil
	}
	n := rec.Definition.AtomNumberDensity(density)

	// A photon already walking on a source line terminates at its next
	// collision vertex: the vertex is the source point, and dividing by
	// the macroscopic cross section converts the collision estimate into
	// a track-length density. No Compton event occurred for this line,
	// so the terminal weight carries cm.
	if k.settings.VolumeSources && k.onSourceLine(nu) {
		st.Weight /= n * sigmaTot
		return StatusEnergyConstraint, nil
	}

	sigmaC := rec.Compton.CrossSection(nu)
	u := k.rng.Float64() * sigmaTot
	if u >= sigmaC && rec.Rayleigh != nil {
		smp := rec.Rayleigh.Sample(nu, k.rng)
		if err := k.scatter(st, smp.CosTheta); err != nil {
			return StatusLive, err
		}
		return StatusLive, nil
	}

	adj := rec.ComptonAdjoint
	smp := adj.SampleAdjoint(nu, k.rng)
	if smp.Weight <= 0 {
		// No incoming energy inside the transport window can reach nu.
		return StatusEnergyMax, nil
	}

	// A source line crossed by the discrete energy jump fires
	// ENERGY_CONSTRAINT at this vertex: the sampled transition is
	// replaced by the forced line, weighted by the forward differential
	// cross section of the line transition over the probability of
	// having sampled a crossing, and by the collision-to-track-length
	// factor. The terminal weight carries cm/MeV.
	if k.settings.VolumeSources {
		if line, ok := k.nearestCrossedLine(nu, smp.Energy); ok {
			p := adj.CrossingProbability(nu, line)
			if p > 0 {
				dcsLine := adj.DCS(line, nu)
				if dcsLine > 0 {
					st.Weight *= dcsLine / (sigmaC * p) / (n * sigmaTot)
					st.Energy = line
					cosTheta := 1 + ElectronMass/line - ElectronMass/nu
					if cosTheta < -1 {
						cosTheta = -1
					}
					if err := k.scatter(st, cosTheta); err != nil {
						return StatusLive, err
					}
					return StatusEnergyConstraint, nil
				}
			}
		}
	}

	st.Energy = smp.Energy
	st.Weight *= smp.Weight
	if err := k.scatter(st, smp.CosTheta); err != nil {
		return StatusLive, err
	}
	if st.Energy > k.settings.EnergyMax {
		return StatusEnergyMax, nil
	}
	return StatusLive, nil
}

// === Step loop ===

// run transports one photon state to its terminal classification. The
// state is mutated in place to the trajectory endpoint; the returned
// status is the terminal code. A non-nil error is fatal for the batch.
func (k *kernel) run(st *PhotonState) (Status, error) {
	s := k.settings

	if d, ok := st.Direction.Normalized(); ok {
		st.Direction = d
	} else {
		return StatusLive, newNumericalError("transport", fmt.Errorf("initial direction %v is not normalizable", st.Direction))
	}
	if st.Weight <= 0 || math.IsNaN(st.Weight) || math.IsInf(st.Weight, 0) {
		return StatusLive, newNumericalError("transport", fmt.Errorf("initial weight %g", st.Weight))
	}
	if st.Energy < s.EnergyMin {
		return StatusEnergyMin, nil
	}
	if st.Energy > s.EnergyMax {
		return StatusEnergyMax, nil
	}

	k.tracer.Reset(st.Position, st.Direction.Scale(k.walkSign))
	if k.tracer.Outside() {
		return StatusExit, nil
	}

	for {
		sectorIdx := k.tracer.Sector()
		if sectorIdx < 0 || sectorIdx >= k.geometry.SectorsLen() {
			return StatusLive, newGeometryError("transport", fmt.Errorf("tracer reported sector %d of %d", sectorIdx, k.geometry.SectorsLen()))
		}
		sector := k.geometry.GetSector(sectorIdx)
		if sector.MaterialIndex < 0 || sector.MaterialIndex >= len(k.records) {
			return StatusLive, newGeometryError("transport", fmt.Errorf("sector %d references material %d of %d", sectorIdx, sector.MaterialIndex, len(k.records)))
		}
		rec := k.records[sector.MaterialIndex]

		uniform := sector.Density.Uniform()
		localDensity := k.tracer.DensityAt(sectorIdx, st.Position)
		stepDensity := localDensity
		if !uniform {
			stepDensity = sector.Density.Majorant()
		}
		sigmaStep := rec.Definition.AtomNumberDensity(stepDensity) * k.sampler.channelCrossSection(rec, st.Energy)

		remaining := s.LengthMax - st.Length
		if remaining <= 0 {
			return StatusLengthMax, nil
		}
		limit := remaining
		if sigmaStep > 0 {
			dInt := -math.Log(k.rng.FloatOpen01()) / sigmaStep
			if dInt < limit {
				limit = dInt
			}
		}

		dGeo, err := k.tracer.Trace(limit)
		if err != nil {
			return StatusLive, newGeometryError("transport", err)
		}
		if dGeo < 0 || math.IsNaN(dGeo) || dGeo > limit*(1+1e-12) {
			return StatusLive, newGeometryError("transport", fmt.Errorf("trace(%g) returned %g", limit, dGeo))
		}

		traveled := math.Min(dGeo, limit)
		if s.Absorption == Continuous && rec.Absorption != nil && traveled > 0 {
			sigmaAbs := rec.Definition.AtomNumberDensity(localDensity) * rec.Absorption.CrossSection(st.Energy)
			st.Weight *= math.Exp(-sigmaAbs * traveled)
		}
		st.Position = st.Position.Add(st.Direction.Scale(k.walkSign * traveled))
		st.Length += traveled
		if err := k.tracer.Update(traveled, st.Direction.Scale(k.walkSign)); err != nil {
			return StatusLive, newGeometryError("transport", err)
		}
		if !st.FiniteWeight() {
			return StatusLive, newNumericalError("transport", fmt.Errorf("weight became %g at length %g", st.Weight, st.Length))
		}

		if dGeo < limit {
			// Interface crossing, no interaction.
			if k.tracer.Outside() {
				return StatusExit, nil
			}
			if s.HasBoundary && k.tracer.Sector() == s.Boundary {
				return StatusBoundary, nil
			}
			continue
		}
		if limit == remaining {
			return StatusLengthMax, nil
		}

		// Collision vertex. Under a non-uniform density the step was
		// drawn against the majorant; a fictitious (null) collision
		// leaves the state untouched and resumes the flight.
		if !uniform {
			localDensity = k.tracer.DensityAt(sectorIdx, st.Position)
			sigmaLocal := rec.Definition.AtomNumberDensity(localDensity) * k.sampler.channelCrossSection(rec, st.Energy)
			if k.rng.Float64()*sigmaStep > sigmaLocal {
				continue
			}
		}

		status, err := k.sampler.collide(k, st, rec, localDensity)
		if err != nil {
			return StatusLive, err
		}
		if TraceSteps {
			log.Printf("<< collision in sector %d: E=%g MeV w=%g l=%g cm -> %s",
				sectorIdx, st.Energy, st.Weight, st.Length, status)
		}
		if !st.FiniteWeight() {
			return StatusLive, newNumericalError("transport", fmt.Errorf("weight became %g after collision", st.Weight))
		}
		if status != StatusLive {
			return status, nil
		}
	}
}
