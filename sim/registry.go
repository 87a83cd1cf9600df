package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MaterialRecord pairs a resolved material definition with the physics
// models compiled for it. Records are owned by the MaterialRegistry and
// referenced by index from geometry sectors; after Compute they are
// immutable and safe to share across workers.
type MaterialRecord struct {
	Definition *MaterialDefinition

	Compton        ComptonModel
	ComptonAdjoint AdjointComptonModel // nil unless backward tables were requested
	Rayleigh       RayleighModel       // nil when Rayleigh is disabled
	Absorption     AbsorptionModelImpl // nil when absorption is off
}

// MaterialRegistry composites element records into per-material electronic
// structure and owns the compiled physics tables. Materials are registered
// once, then Compute builds (or rebuilds) the table subset the settings
// require.
type MaterialRegistry struct {
	elements *ElementTable

	mu          sync.Mutex
	records     []*MaterialRecord
	byName      map[string]int
	computedFor string // fingerprint of the settings the tables were built for
}

// NewMaterialRegistry builds an empty registry over the given element table.
func NewMaterialRegistry(elements *ElementTable) *MaterialRegistry {
	return &MaterialRegistry{elements: elements, byName: make(map[string]int)}
}

// Add resolves def against the element table and registers it, returning
// its index. Registering two materials with the same name is an error.
func (g *MaterialRegistry) Add(def MaterialDefinition) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.byName[def.Name]; dup {
		return 0, newConfigError("register material", fmt.Errorf("duplicate material %q", def.Name))
	}
	if err := def.Resolve(g.elements); err != nil {
		return 0, err
	}
	idx := len(g.records)
	g.records = append(g.records, &MaterialRecord{Definition: &def})
	g.byName[def.Name] = idx
	g.computedFor = "" // new material invalidates compiled tables
	return idx, nil
}

// Len returns the number of registered materials.
func (g *MaterialRegistry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

// Record returns the record at index i, or nil if out of range.
func (g *MaterialRegistry) Record(i int) *MaterialRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.records) {
		return nil
	}
	return g.records[i]
}

// Records returns a point-in-time copy of the record slice. The kernel
// snapshots it once per transport call so the hot loop indexes a plain
// slice instead of taking the registry lock per step.
func (g *MaterialRegistry) Records() []*MaterialRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*MaterialRecord, len(g.records))
	copy(out, g.records)
	return out
}

// IndexOf returns the index of the named material.
func (g *MaterialRegistry) IndexOf(name string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.byName[name]
	return i, ok
}

// tableFingerprint identifies the subset of settings whose change
// invalidates compiled tables.
func tableFingerprint(s *TransportSettings) string {
	return fmt.Sprintf("%s|%s|%s|%s|rayleigh=%t|%g..%g|%dx%d",
		s.Mode, s.Absorption, s.Compton.Model, s.Compton.Method,
		s.Rayleigh, s.EnergyMin, s.EnergyMax, s.Grid.EnergyNodes, s.Grid.XNodes)
}

// Compute builds, for every registered material, the table subset the
// settings require: forward Compton (always built; the backward estimator
// needs the forward DCS too), the adjoint Compton sampler in backward or both
// modes, Rayleigh when enabled, absorption unless off. Idempotent: calling
// again with equivalent settings is a no-op; calling with different
// settings rebuilds.
func (g *MaterialRegistry) Compute(settings TransportSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	fp := tableFingerprint(&settings)
	if g.computedFor == fp {
		return nil
	}
	start := time.Now()
	for _, rec := range g.records {
		if err := g.compile(rec, &settings); err != nil {
			return err
		}
	}
	g.computedFor = fp
	logrus.Infof("compiled physics tables for %d materials (%s mode, %s model, %d-node grid) in %v",
		len(g.records), settings.Mode, settings.Compton.Model, settings.Grid.EnergyNodes, time.Since(start))
	return nil
}

func (g *MaterialRegistry) compile(rec *MaterialRecord, s *TransportSettings) error {
	def := rec.Definition
	ctx := ModelContext{
		Structure:           def.Structure(),
		ElectronsPerFormula: def.ElectronsPerFormula(),
		AtomsPerFormula:     1,
		EnergyMin:           s.EnergyMin,
		EnergyMax:           s.EnergyMax,
		Grid:                s.Grid,
		ComptonMethod:       s.Compton.Method,
	}

	compton, err := BuildComptonModel(s.Compton.Model, ctx)
	if err != nil {
		return newTableBuildError("compile compton tables for "+def.Name, err)
	}
	rec.Compton = compton

	rec.ComptonAdjoint = nil
	if s.NeedsAdjoint() {
		adjoint, err := BuildAdjointComptonModel(s.Compton.Model, compton, ctx, s.Compton.Method)
		if err != nil {
			return newTableBuildError("compile adjoint compton tables for "+def.Name, err)
		}
		rec.ComptonAdjoint = adjoint
	}

	rec.Rayleigh = nil
	if s.Rayleigh {
		rayleigh, err := BuildRayleighModel(ctx)
		if err != nil {
			return newTableBuildError("compile rayleigh tables for "+def.Name, err)
		}
		rec.Rayleigh = rayleigh
	}

	rec.Absorption = nil
	if s.Absorption != AbsorptionOff {
		absorption, err := BuildAbsorptionModel(ctx)
		if err != nil {
			return newTableBuildError("compile absorption tables for "+def.Name, err)
		}
		rec.Absorption = absorption
	}
	return nil
}
