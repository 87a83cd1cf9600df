// Package sim provides the core Monte Carlo transport engine for Goupil.
//
// # Reading Guide
//
// Start with these files to understand the transport kernel:
//   - state.go: PhotonState, the mutable particle record, and Status, the
//     terminal classification written out when a trajectory ends.
//   - geometry.go: the Definition/Tracer contract the kernel calls into.
//   - kernel.go: the event loop: step sampling, process selection,
//     boundary and termination handling, weight bookkeeping.
//
// # Architecture
//
// The sim package defines the kernel, the data model, and the physics-model
// interfaces; concrete physics models live in sub-packages:
//   - sim/compton/: Klein-Nishina, scattering-function and Penelope Compton
//     models, forward and adjoint.
//   - sim/rayleigh/: Rayleigh cross section and form factor.
//   - sim/absorption/: photoelectric absorption cross section.
//   - sim/table/: log-grid bilinear interpolation and inverse-CDF sampling
//     shared by every physics model.
//   - sim/geom/: a reference Definition/Tracer implementation (planar
//     stratified sectors) plus a loader for externally supplied geometry
//     plug-ins.
//
// Sub-packages register their model constructors via init() functions
// (RegisterComptonModel, RegisterRayleighModel, RegisterAbsorptionModel),
// which is what decouples sim/ from its implementation sub-packages:
// importing an application entry point blank-imports the models it needs.
//
// # Key Interfaces
//
// The extension points are small, often single-method, interfaces:
//   - ComptonModel: cross section, DCS, DCS support, forward/adjoint sampling.
//   - RayleighModel: cross section and differential cross section sampling.
//   - AbsorptionModelImpl: cross section.
//   - Definition / Tracer: the geometry contract every back-end honors.
//   - processSampler: forward vs. backward collision-vertex dispatch,
//     factored out of the kernel loop so the loop body is mode agnostic.
package sim
