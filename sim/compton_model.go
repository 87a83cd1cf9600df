package sim

// ComptonSample is the outcome of sampling a Compton event: the other
// photon energy (nu_f forward, nu_i backward), the scattering cosine, and
// the generation weight w: 1 for analog sampling, otherwise the
// model's bias/adjoint factor that must be multiplied into the photon's
// running weight.
type ComptonSample struct {
	Energy   float64 // nu_f (forward) or nu_i (backward), MeV
	CosTheta float64
	Weight   float64
}

// ComptonModel is the physics-model contract for Compton scattering.
// Klein-Nishina, ScatteringFunction and Penelope all implement it; dispatch
// is resolved once per transport call, never per step.
type ComptonModel interface {
	// CrossSection returns the total Compton cross section sigma(nu) per
	// formula unit, in cm^2, at incoming photon energy nu (MeV).
	CrossSection(nu float64) float64
	// DCS returns the forward differential cross section dSigma/dNuF at
	// (nuI, nuF).
	DCS(nuI, nuF float64) float64
	// DCSSupport returns the (nu_min, nu_max) support of the forward DCS
	// for incoming energy nuI.
	DCSSupport(nuI float64) (nuMin, nuMax float64)
	// Sample draws a forward Compton event: outgoing energy, scattering
	// cosine, and generation weight.
	Sample(nuI float64, rng *Stream) ComptonSample
}

// AdjointComptonModel is the backward-mode extension of ComptonModel: the
// adjoint (or inverse) sampler, returning (nu_i, cosTheta, w_adj)
// from a final energy nu_f.
type AdjointComptonModel interface {
	ComptonModel
	// SampleAdjoint draws a backward Compton event: the incoming energy
	// nu_i that could have produced nuF, the scattering cosine, and the
	// adjoint weight factor to accumulate multiplicatively into the
	// photon's weight.
	SampleAdjoint(nuF float64, rng *Stream) ComptonSample
	// AdjointSupport returns the range of incoming energies nu_i the
	// sampler can produce for a given final energy nuF.
	AdjointSupport(nuF float64) (nuMin, nuMax float64)
	// CrossingProbability returns the probability, under the sampler's
	// own nu_i distribution, that a draw at nuF lands at or above line.
	// The kernel divides by it when it converts a sampled line crossing
	// into an ENERGY_CONSTRAINT terminal weight.
	CrossingProbability(nuF, line float64) float64
}

// ReferenceSpectrum supplies the reference distribution the adjoint
// sampler's Bayes-rule derivation is taken against. A flat spectrum over
// [min, max] is the
// common default; callers may supply a shaped one (e.g. matching a known
// external source spectrum) to reduce adjoint-sampling variance.
type ReferenceSpectrum interface {
	// Density returns the reference probability density at energy nu.
	Density(nu float64) float64
	// Bounds returns the support of the reference spectrum.
	Bounds() (min, max float64)
}

// FlatSpectrum is a ReferenceSpectrum uniform over [Min, Max].
type FlatSpectrum struct {
	Min, Max float64
}

func (f FlatSpectrum) Density(nu float64) float64 {
	if nu < f.Min || nu > f.Max {
		return 0
	}
	return 1 / (f.Max - f.Min)
}

func (f FlatSpectrum) Bounds() (float64, float64) { return f.Min, f.Max }

// ModelContext carries everything a per-material physics-model builder
// needs: the material's aggregated electronic structure, the energy range
// tables must cover, and the requested grid shape.
type ModelContext struct {
	Structure            ElectronicStructure
	ElectronsPerFormula  float64
	AtomsPerFormula      float64 // formula units, for absorption's per-atom tables
	EnergyMin, EnergyMax float64
	Grid                 GridSettings
	// ComptonMethod selects rejection vs inverse-transform sampling for
	// the Compton model being built.
	ComptonMethod ComptonSamplingMethod
	// Reference is the spectrum the adjoint CDF tables are built against.
	// Nil means flat over [EnergyMin, EnergyMax].
	Reference ReferenceSpectrum
}

// ComptonModelBuilder constructs a ComptonModel for one material.
type ComptonModelBuilder func(ctx ModelContext) (ComptonModel, error)

// ComptonAdjointBuilder constructs the backward counterpart, when the
// requested sampling method supports it. Penelope has no closed-form
// adjoint profile and falls back to rejection; its builder may
// return a model that implements AdjointComptonModel via rejection against
// the forward DCS rather than a pre-tabulated inverse CDF.
type ComptonAdjointBuilder func(forward ComptonModel, ctx ModelContext, method ComptonSamplingMethod) (AdjointComptonModel, error)

// comptonBuilders holds one (forward, adjoint) builder pair per
// ComptonModelKind, populated by sim/compton's init() via RegisterComptonModel.
var comptonBuilders = map[ComptonModelKind]struct {
	forward ComptonModelBuilder
	adjoint ComptonAdjointBuilder
}{}

// RegisterComptonModel wires a (forward, adjoint) builder pair for kind.
// Called from sim/compton's init(), breaking the import cycle between sim
// (interface owner) and sim/compton (implementation).
func RegisterComptonModel(kind ComptonModelKind, forward ComptonModelBuilder, adjoint ComptonAdjointBuilder) {
	comptonBuilders[kind] = struct {
		forward ComptonModelBuilder
		adjoint ComptonAdjointBuilder
	}{forward, adjoint}
}

// BuildComptonModel looks up the builder registered for kind and invokes it.
func BuildComptonModel(kind ComptonModelKind, ctx ModelContext) (ComptonModel, error) {
	b, ok := comptonBuilders[kind]
	if !ok || b.forward == nil {
		return nil, newConfigError("build compton model", errUnregisteredModel(kind))
	}
	return b.forward(ctx)
}

// BuildAdjointComptonModel looks up the adjoint builder registered for kind
// and invokes it against an already-built forward model.
func BuildAdjointComptonModel(kind ComptonModelKind, forward ComptonModel, ctx ModelContext, method ComptonSamplingMethod) (AdjointComptonModel, error) {
	b, ok := comptonBuilders[kind]
	if !ok || b.adjoint == nil {
		return nil, newConfigError("build adjoint compton model", errUnregisteredModel(kind))
	}
	return b.adjoint(forward, ctx, method)
}

func errUnregisteredModel(kind ComptonModelKind) error {
	return &unregisteredModelError{kind}
}

type unregisteredModelError struct{ kind ComptonModelKind }

func (e *unregisteredModelError) Error() string {
	return "compton model " + e.kind.String() + " not registered (missing blank import of sim/compton?)"
}
