// Package scenario loads a complete simulation setup from a YAML
// document: materials, the stratified geometry, transport settings, and
// the initial photon batch. It is the configuration surface behind the
// CLI's run and validate commands.
package scenario

import (
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	sim "github.com/goupil-project/goupil/sim"
	"github.com/goupil-project/goupil/sim/geom"
)

// v1ToV2Modes maps deprecated v1 mode names to v2 equivalents.
var v1ToV2Modes = map[string]string{
	"adjoint": "backward",
	"analog":  "forward",
}

// Spec is the top-level scenario configuration, loaded from YAML via
// Load(path).
type Spec struct {
	Version   string         `yaml:"version"`
	Seed      int64          `yaml:"seed"`
	Settings  SettingsSpec   `yaml:"settings"`
	Materials []MaterialSpec `yaml:"materials"`
	Geometry  GeometrySpec   `yaml:"geometry"`
	States    StatesSpec     `yaml:"states"`
}

// SettingsSpec mirrors sim.TransportSettings with string-keyed enums and
// a by-description boundary reference.
type SettingsSpec struct {
	Mode           string    `yaml:"mode"`
	Absorption     string    `yaml:"absorption"`
	ComptonModel   string    `yaml:"compton_model"`
	ComptonMethod  string    `yaml:"compton_method"`
	Rayleigh       *bool     `yaml:"rayleigh,omitempty"`       // nil = on
	VolumeSources  *bool     `yaml:"volume_sources,omitempty"` // nil = on
	SourceEnergies []float64 `yaml:"source_energies,omitempty"`
	BoundarySector string    `yaml:"boundary_sector,omitempty"` // by layer description
	EnergyMin      float64   `yaml:"energy_min,omitempty"`
	EnergyMax      float64   `yaml:"energy_max,omitempty"`
	LengthMax      float64   `yaml:"length_max,omitempty"`
	EnergyNodes    int       `yaml:"energy_nodes,omitempty"`
	XNodes         int       `yaml:"x_nodes,omitempty"`
	Workers        int       `yaml:"workers,omitempty"`
}

// MaterialSpec names a material and its composition.
type MaterialSpec struct {
	Name        string                  `yaml:"name"`
	Fractions   string                  `yaml:"fractions,omitempty"` // "mole" (default) or "mass"
	Composition []sim.MaterialComponent `yaml:"composition"`
}

// GeometrySpec is a stratified stack along an axis.
type GeometrySpec struct {
	Axis   [3]float64  `yaml:"axis"`
	Layers []LayerSpec `yaml:"layers"`
}

// LayerSpec is one slab: material by name, offset bounds along the axis,
// and a density model.
type LayerSpec struct {
	Material    string      `yaml:"material"`
	Lower       float64     `yaml:"lower"`
	Upper       float64     `yaml:"upper"`
	Description string      `yaml:"description,omitempty"`
	Density     DensitySpec `yaml:"density"`
}

// DensitySpec selects a density model: a uniform scalar, or an
// exponential gradient.
type DensitySpec struct {
	Uniform float64          `yaml:"uniform,omitempty"` // g/cm^3
	Exp     *ExponentialSpec `yaml:"exponential,omitempty"`
}

// ExponentialSpec is the exponential-gradient density model.
type ExponentialSpec struct {
	Rho0   float64    `yaml:"rho0"`   // g/cm^3 at origin
	Origin [3]float64 `yaml:"origin"` // cm
	Axis   [3]float64 `yaml:"axis"`   // gradient direction
	Lambda float64    `yaml:"lambda"` // cm
	Max    float64    `yaml:"max,omitempty"`
}

// StatesSpec describes the initial photon batch.
type StatesSpec struct {
	Count     int        `yaml:"count"`
	Energy    float64    `yaml:"energy"` // MeV
	Position  [3]float64 `yaml:"position"`
	Direction [3]float64 `yaml:"direction,omitempty"`
	Isotropic bool       `yaml:"isotropic,omitempty"`
}

// Load reads and parses a scenario file, then applies the upgrade and
// defaulting passes.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %q: %w", path, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse scenario YAML %q: %w", path, err)
	}
	UpgradeV1ToV2(&spec)
	spec.applyDefaults()
	return &spec, nil
}

// UpgradeV1ToV2 auto-upgrades a v1 scenario in place: deprecated mode
// names are mapped to their v2 equivalents and the version field is set.
// Idempotent; emits logrus.Warn deprecation notices for mapped names.
func UpgradeV1ToV2(spec *Spec) {
	if spec.Version == "" || spec.Version == "1" {
		spec.Version = "2"
	}
	if newName, ok := v1ToV2Modes[spec.Settings.Mode]; ok {
		logrus.Warnf("deprecated transport mode %q auto-mapped to %q; update your scenario to use v2 mode names",
			spec.Settings.Mode, newName)
		spec.Settings.Mode = newName
	}
}

func (s *Spec) applyDefaults() {
	if s.States.Count == 0 {
		s.States.Count = 1
	}
	if !s.States.Isotropic && s.States.Direction == ([3]float64{}) {
		s.States.Direction = [3]float64{0, 0, 1}
	}
	if s.Geometry.Axis == ([3]float64{}) {
		s.Geometry.Axis = [3]float64{0, 0, 1}
	}
}

// TransportSettings resolves the string-keyed settings into
// sim.TransportSettings. The boundary sector reference is resolved later,
// against the built geometry.
func (s *Spec) TransportSettings() (sim.TransportSettings, error) {
	out := sim.DefaultTransportSettings()
	var err error
	if out.Mode, err = sim.ParseMode(s.Settings.Mode); err != nil {
		return out, err
	}
	if out.Absorption, err = sim.ParseAbsorptionMode(s.Settings.Absorption); err != nil {
		return out, err
	}
	if out.Compton.Model, err = sim.ParseComptonModelKind(s.Settings.ComptonModel); err != nil {
		return out, err
	}
	if out.Compton.Method, err = sim.ParseComptonSamplingMethod(s.Settings.ComptonMethod); err != nil {
		return out, err
	}
	if s.Settings.Rayleigh != nil {
		out.Rayleigh = *s.Settings.Rayleigh
	}
	if s.Settings.VolumeSources != nil {
		out.VolumeSources = *s.Settings.VolumeSources
	}
	out.SourceEnergies = s.Settings.SourceEnergies
	if s.Settings.EnergyMin > 0 {
		out.EnergyMin = s.Settings.EnergyMin
	}
	if s.Settings.EnergyMax > 0 {
		out.EnergyMax = s.Settings.EnergyMax
	}
	if s.Settings.LengthMax > 0 {
		out.LengthMax = s.Settings.LengthMax
	}
	if s.Settings.EnergyNodes > 0 {
		out.Grid.EnergyNodes = s.Settings.EnergyNodes
	}
	if s.Settings.XNodes > 0 {
		out.Grid.XNodes = s.Settings.XNodes
	}
	out.Workers = s.Settings.Workers
	return out, nil
}

// Build assembles the registry, geometry, settings, and initial batch
// from the scenario, against the given element table.
func (s *Spec) Build(elements *sim.ElementTable) (*geom.Stratified, *sim.MaterialRegistry, sim.TransportSettings, []sim.PhotonState, error) {
	settings, err := s.TransportSettings()
	if err != nil {
		return nil, nil, settings, nil, err
	}

	registry := sim.NewMaterialRegistry(elements)
	var materials []*sim.MaterialDefinition
	for _, m := range s.Materials {
		kind := sim.MoleFraction
		switch m.Fractions {
		case "", "mole":
		case "mass":
			kind = sim.MassFraction
		default:
			return nil, nil, settings, nil, fmt.Errorf("material %q: unknown fraction kind %q", m.Name, m.Fractions)
		}
		def := sim.MaterialDefinition{Name: m.Name, Components: m.Composition, FractionOf: kind}
		idx, err := registry.Add(def)
		if err != nil {
			return nil, nil, settings, nil, err
		}
		materials = append(materials, registry.Record(idx).Definition)
	}

	var layers []geom.Layer
	for i, l := range s.Geometry.Layers {
		matIdx, ok := registry.IndexOf(l.Material)
		if !ok {
			return nil, nil, settings, nil, fmt.Errorf("layer %d references unknown material %q", i, l.Material)
		}
		density, err := l.Density.model()
		if err != nil {
			return nil, nil, settings, nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, geom.Layer{
			MaterialIndex: matIdx,
			Lower:         l.Lower,
			Upper:         l.Upper,
			Density:       density,
			Description:   l.Description,
		})
	}
	geometry, err := geom.NewStratified(sim.Vector3(s.Geometry.Axis), materials, layers)
	if err != nil {
		return nil, nil, settings, nil, err
	}

	if s.Settings.BoundarySector != "" {
		idx, ok := geometry.SectorIndexOf(s.Settings.BoundarySector)
		if !ok {
			return nil, nil, settings, nil, fmt.Errorf("boundary sector %q matches no layer description", s.Settings.BoundarySector)
		}
		settings.Boundary = idx
		settings.HasBoundary = true
	}

	states := s.InitialStates()
	return geometry, registry, settings, states, nil
}

// InitialStates builds the photon batch. Isotropic directions are drawn
// from a dedicated substream of the scenario seed so they do not perturb
// the transport streams.
func (s *Spec) InitialStates() []sim.PhotonState {
	states := make([]sim.PhotonState, s.States.Count)
	var rng *sim.Stream
	if s.States.Isotropic {
		rng = sim.Substream(sim.NewSeed(s.Seed), math.MaxUint64)
	}
	for i := range states {
		dir := sim.Vector3(s.States.Direction)
		if s.States.Isotropic {
			c := 2*rng.Float64() - 1
			phi := rng.Azimuth()
			sin := math.Sqrt(1 - c*c)
			dir = sim.Vector3{sin * math.Cos(phi), sin * math.Sin(phi), c}
		}
		states[i] = sim.NewPhotonState(s.States.Energy, sim.Vector3(s.States.Position), dir)
	}
	return states
}

func (d DensitySpec) model() (sim.DensityModel, error) {
	switch {
	case d.Exp != nil && d.Uniform != 0:
		return nil, fmt.Errorf("density gives both uniform and exponential models")
	case d.Exp != nil:
		axis, ok := sim.Vector3(d.Exp.Axis).Normalized()
		if !ok {
			return nil, fmt.Errorf("exponential density axis %v is degenerate", d.Exp.Axis)
		}
		return geom.Exponential{
			Rho0:   d.Exp.Rho0,
			Origin: sim.Vector3(d.Exp.Origin),
			Axis:   axis,
			Lambda: d.Exp.Lambda,
			Max:    d.Exp.Max,
		}, nil
	case d.Uniform > 0:
		return geom.Uniform{Rho: d.Uniform}, nil
	default:
		return nil, fmt.Errorf("density needs a positive uniform value or an exponential block")
	}
}
