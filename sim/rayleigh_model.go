package sim

// RayleighSample is the outcome of sampling a Rayleigh event: energy is
// unchanged, only the scattering cosine is produced.
type RayleighSample struct {
	CosTheta float64
}

// RayleighModel is the physics-model contract for coherent (Rayleigh)
// scattering: cross section and form-factor-weighted DCS sampling.
type RayleighModel interface {
	// CrossSection returns the total Rayleigh cross section sigma(nu), cm^2.
	CrossSection(nu float64) float64
	// Sample draws a scattering cosine from the Rayleigh DCS at energy nu.
	Sample(nu float64, rng *Stream) RayleighSample
}

// RayleighModelBuilder constructs a RayleighModel for one material.
type RayleighModelBuilder func(ctx ModelContext) (RayleighModel, error)

var rayleighBuilder RayleighModelBuilder

// RegisterRayleighModel wires the builder used by BuildRayleighModel. Called
// from sim/rayleigh's init().
func RegisterRayleighModel(b RayleighModelBuilder) { rayleighBuilder = b }

// BuildRayleighModel invokes the registered builder.
func BuildRayleighModel(ctx ModelContext) (RayleighModel, error) {
	if rayleighBuilder == nil {
		return nil, newConfigError("build rayleigh model", errMissingImport("sim/rayleigh"))
	}
	return rayleighBuilder(ctx)
}

// AbsorptionModelImpl is the physics-model contract for photoelectric
// absorption: a total cross section table, no directional sampling.
// Absorption terminates or reduces weight, it never scatters.
type AbsorptionModelImpl interface {
	CrossSection(nu float64) float64
}

// AbsorptionModelBuilder constructs an AbsorptionModelImpl for one material.
type AbsorptionModelBuilder func(ctx ModelContext) (AbsorptionModelImpl, error)

var absorptionBuilder AbsorptionModelBuilder

// RegisterAbsorptionModel wires the builder used by BuildAbsorptionModel.
// Called from sim/absorption's init().
func RegisterAbsorptionModel(b AbsorptionModelBuilder) { absorptionBuilder = b }

// BuildAbsorptionModel invokes the registered builder.
func BuildAbsorptionModel(ctx ModelContext) (AbsorptionModelImpl, error) {
	if absorptionBuilder == nil {
		return nil, newConfigError("build absorption model", errMissingImport("sim/absorption"))
	}
	return absorptionBuilder(ctx)
}

type missingImportError string

func (e missingImportError) Error() string {
	return "no model registered; missing blank import of " + string(e)
}

func errMissingImport(pkg string) error { return missingImportError(pkg) }
