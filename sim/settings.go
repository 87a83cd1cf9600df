package sim

import "fmt"

// Mode selects the transport direction.
type Mode int

const (
	Forward Mode = iota
	Backward
	Both
)

func (m Mode) String() string {
	switch m {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode parses the YAML/CLI string form of Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "forward", "":
		return Forward, nil
	case "backward":
		return Backward, nil
	case "both", "all":
		return Both, nil
	default:
		return Forward, fmt.Errorf("unknown transport mode %q", s)
	}
}

// AbsorptionMode selects how photoelectric absorption is applied.
type AbsorptionMode int

const (
	// Discrete samples absorption as a terminating event (ABSORBED).
	Discrete AbsorptionMode = iota
	// Continuous applies a survival-weight factor exp(-Sigma_abs*d) instead
	// of a discrete channel.
	Continuous
	// AbsorptionOff disables absorption entirely.
	AbsorptionOff
)

func (a AbsorptionMode) String() string {
	switch a {
	case Discrete:
		return "discrete"
	case Continuous:
		return "continuous"
	case AbsorptionOff:
		return "off"
	default:
		return "unknown"
	}
}

// ParseAbsorptionMode parses the YAML/CLI string form of AbsorptionMode.
func ParseAbsorptionMode(s string) (AbsorptionMode, error) {
	switch s {
	case "discrete", "":
		return Discrete, nil
	case "continuous":
		return Continuous, nil
	case "off":
		return AbsorptionOff, nil
	default:
		return Discrete, fmt.Errorf("unknown absorption mode %q", s)
	}
}

// ComptonSamplingMethod selects how the forward Compton DCS is sampled.
type ComptonSamplingMethod int

const (
	// Rejection uses a Kahn-style rejection sampler; always analog (w==1)
	// for Klein-Nishina.
	Rejection ComptonSamplingMethod = iota
	// InverseTransform uses a pre-tabulated inverse CDF.
	InverseTransform
)

func (m ComptonSamplingMethod) String() string {
	switch m {
	case Rejection:
		return "rejection"
	case InverseTransform:
		return "inverse-transform"
	default:
		return "unknown"
	}
}

// ParseComptonSamplingMethod parses the YAML/CLI string form.
func ParseComptonSamplingMethod(s string) (ComptonSamplingMethod, error) {
	switch s {
	case "rejection", "":
		return Rejection, nil
	case "inverse-transform", "inverse_transform":
		return InverseTransform, nil
	default:
		return Rejection, fmt.Errorf("unknown compton sampling method %q", s)
	}
}

// ComptonModelKind selects the physics model used for Compton scattering.
type ComptonModelKind int

const (
	KleinNishina ComptonModelKind = iota
	ScatteringFunction
	Penelope
)

func (k ComptonModelKind) String() string {
	switch k {
	case KleinNishina:
		return "klein-nishina"
	case ScatteringFunction:
		return "scattering-function"
	case Penelope:
		return "penelope"
	default:
		return "unknown"
	}
}

// ParseComptonModelKind parses the YAML/CLI string form.
func ParseComptonModelKind(s string) (ComptonModelKind, error) {
	switch s {
	case "scattering-function", "scattering_function", "":
		return ScatteringFunction, nil
	case "klein-nishina", "klein_nishina", "kn":
		return KleinNishina, nil
	case "penelope", "ia", "impulse-approximation":
		return Penelope, nil
	default:
		return ScatteringFunction, fmt.Errorf("unknown compton model %q", s)
	}
}

// ComptonSettings groups the Compton-model selection knobs.
type ComptonSettings struct {
	Model  ComptonModelKind      `yaml:"model"`
	Method ComptonSamplingMethod `yaml:"method"`
}

// GridSettings controls the shape of the physics tables built by the
// material registry.
type GridSettings struct {
	EnergyNodes int `yaml:"energy_nodes"` // per-axis node count, default 128
	XNodes      int `yaml:"x_nodes"`      // CDF-grid x-axis node count, default 128
}

// DefaultGridSettings returns the ~128-nodes-per-axis default grid shape.
func DefaultGridSettings() GridSettings {
	return GridSettings{EnergyNodes: 128, XNodes: 128}
}

// TransportSettings is the frozen configuration consumed by both the
// material registry's compute() and the transport kernel. Zero value is NOT
// a valid configuration; use DefaultTransportSettings and override.
type TransportSettings struct {
	Mode           Mode            `yaml:"mode"`
	Absorption     AbsorptionMode  `yaml:"absorption"`
	Compton        ComptonSettings `yaml:"compton"`
	Rayleigh       bool            `yaml:"rayleigh"`
	VolumeSources  bool            `yaml:"volume_sources"`
	SourceEnergies []float64       `yaml:"source_energies"` // backward-only, discrete volume-source lines (MeV)
	Boundary       int             `yaml:"boundary"`        // inner boundary sector index
	HasBoundary    bool            `yaml:"has_boundary"`
	EnergyMin      float64         `yaml:"energy_min"` // MeV
	EnergyMax      float64         `yaml:"energy_max"` // MeV
	LengthMax      float64         `yaml:"length_max"` // cm
	Grid           GridSettings    `yaml:"grid"`
	Workers        int             `yaml:"workers"` // 0 = GOMAXPROCS
}

// DefaultTransportSettings returns forward mode, discrete absorption,
// Rayleigh on, volume sources on.
func DefaultTransportSettings() TransportSettings {
	return TransportSettings{
		Mode:          Forward,
		Absorption:    Discrete,
		Compton:       ComptonSettings{Model: ScatteringFunction, Method: Rejection},
		Rayleigh:      true,
		VolumeSources: true,
		EnergyMin:     0.001,
		EnergyMax:     3.0,
		LengthMax:     1e9,
		Grid:          DefaultGridSettings(),
	}
}

// Validate checks for inconsistent configurations: energy bounds,
// source_energies requiring volume sources, backward mode needing source
// information.
func (s *TransportSettings) Validate() error {
	if s.EnergyMin <= 0 || s.EnergyMax <= s.EnergyMin {
		return newConfigError("validate", fmt.Errorf("invalid energy bounds [%g, %g]", s.EnergyMin, s.EnergyMax))
	}
	if s.LengthMax <= 0 {
		return newConfigError("validate", fmt.Errorf("length_max must be positive, got %g", s.LengthMax))
	}
	if s.Mode == Backward || s.Mode == Both {
		haveSources := s.VolumeSources && len(s.SourceEnergies) > 0
		haveBoundaryOrExit := s.HasBoundary
		if !haveSources && !haveBoundaryOrExit {
			return newConfigError("validate", fmt.Errorf("backward mode requires either volume_sources with source_energies or a boundary sector"))
		}
	}
	if len(s.SourceEnergies) > 0 && !s.VolumeSources {
		return newConfigError("validate", fmt.Errorf("source_energies given but volume_sources is disabled"))
	}
	for _, e := range s.SourceEnergies {
		if e <= 0 {
			return newConfigError("validate", fmt.Errorf("source energy %g must be positive", e))
		}
	}
	if s.Absorption == Continuous && s.Mode == Forward {
		// allowed: continuous absorption applies a survival weight instead
		// of a discrete channel in both modes.
	}
	if s.Grid.EnergyNodes < 2 || s.Grid.XNodes < 2 {
		return newConfigError("validate", fmt.Errorf("grid must have at least 2 nodes per axis"))
	}
	return nil
}

// NeedsAdjoint reports whether backward-only adjoint/inverse Compton tables
// must be built for this configuration.
func (s *TransportSettings) NeedsAdjoint() bool {
	return s.Mode == Backward || s.Mode == Both
}

// NeedsForward reports whether forward Compton tables must be built.
func (s *TransportSettings) NeedsForward() bool {
	return s.Mode == Forward || s.Mode == Both
}
