package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	sim "github.com/goupil-project/goupil/sim"
)

const airOverGround = `
version: "2"
seed: 123456789
settings:
  mode: forward
  absorption: discrete
  compton_model: scattering-function
  energy_min: 0.01
  energy_max: 3.0
  length_max: 1.0e9
  energy_nodes: 32
  x_nodes: 32
materials:
  - name: Air
    composition:
      - {element: N, fraction: 0.78}
      - {element: O, fraction: 0.21}
      - {element: Ar, fraction: 0.01}
  - name: CaCO3
    composition:
      - {element: Ca, fraction: 0.2}
      - {element: C, fraction: 0.2}
      - {element: O, fraction: 0.6}
geometry:
  axis: [0, 0, 1]
  layers:
    - material: CaCO3
      lower: -100
      upper: 0
      description: Ground
      density: {uniform: 2.8}
    - material: Air
      lower: 0
      upper: 100000
      description: Atmosphere
      density:
        exponential: {rho0: 1.225e-3, origin: [0, 0, 0], axis: [0, 0, 1], lambda: -1.04e6}
states:
  count: 100
  energy: 0.5
  position: [0, 0, 10]
  direction: [0, 0, 1]
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullScenario(t *testing.T) {
	spec, err := Load(writeTemp(t, airOverGround))
	assert.NoError(t, err)
	assert.Equal(t, int64(123456789), spec.Seed)
	assert.Len(t, spec.Materials, 2)
	assert.Len(t, spec.Geometry.Layers, 2)
	assert.Equal(t, 100, spec.States.Count)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/scenario.yaml")
	assert.Error(t, err)
}

func TestUpgradeV1ToV2_MapsDeprecatedModes(t *testing.T) {
	spec := &Spec{Settings: SettingsSpec{Mode: "adjoint"}}
	UpgradeV1ToV2(spec)
	assert.Equal(t, "backward", spec.Settings.Mode)
	assert.Equal(t, "2", spec.Version)

	// Idempotent.
	UpgradeV1ToV2(spec)
	assert.Equal(t, "backward", spec.Settings.Mode)
}

func TestSpec_SettingsResolution(t *testing.T) {
	spec, err := Load(writeTemp(t, airOverGround))
	assert.NoError(t, err)
	settings, err := spec.TransportSettings()
	assert.NoError(t, err)
	assert.Equal(t, sim.Forward, settings.Mode)
	assert.Equal(t, sim.Discrete, settings.Absorption)
	assert.Equal(t, sim.ScatteringFunction, settings.Compton.Model)
	assert.Equal(t, 0.01, settings.EnergyMin)
	assert.Equal(t, 32, settings.Grid.EnergyNodes)
	// Untouched knobs keep their defaults.
	assert.True(t, settings.Rayleigh)
	assert.True(t, settings.VolumeSources)
}

func TestSpec_BuildGeometryAndStates(t *testing.T) {
	spec, err := Load(writeTemp(t, airOverGround))
	assert.NoError(t, err)

	geometry, registry, settings, states, err := spec.Build(sim.DefaultElementTable())
	assert.NoError(t, err)
	assert.Equal(t, 2, geometry.SectorsLen())
	assert.Equal(t, 2, registry.Len())
	assert.False(t, settings.HasBoundary)
	assert.Len(t, states, 100)
	for _, st := range states {
		assert.Equal(t, 0.5, st.Energy)
		assert.Equal(t, 1.0, st.Weight)
		assert.Equal(t, sim.Vector3{0, 0, 10}, st.Position)
	}

	// The exponential layer got a derived majorant.
	d := geometry.GetSector(1).Density
	assert.False(t, d.Uniform())
	assert.InDelta(t, 1.225e-3, d.Majorant(), 1e-12)
}

func TestSpec_BoundarySectorResolution(t *testing.T) {
	spec, err := Load(writeTemp(t, airOverGround))
	assert.NoError(t, err)
	spec.Settings.BoundarySector = "Ground"

	_, _, settings, _, err := spec.Build(sim.DefaultElementTable())
	assert.NoError(t, err)
	assert.True(t, settings.HasBoundary)
	assert.Equal(t, 0, settings.Boundary)

	spec.Settings.BoundarySector = "Nowhere"
	_, _, _, _, err = spec.Build(sim.DefaultElementTable())
	assert.Error(t, err)
}

func TestSpec_IsotropicStates(t *testing.T) {
	spec, err := Load(writeTemp(t, airOverGround))
	assert.NoError(t, err)
	spec.States.Isotropic = true

	states := spec.InitialStates()
	assert.Len(t, states, 100)
	distinct := map[sim.Vector3]bool{}
	for _, st := range states {
		assert.InDelta(t, 1.0, st.Direction.Norm(), 1e-9)
		distinct[st.Direction] = true
	}
	assert.Greater(t, len(distinct), 90, "isotropic directions are not repeating")

	// Deterministic under the scenario seed.
	again := spec.InitialStates()
	assert.Equal(t, states, again)
}

func TestDensitySpec_Validation(t *testing.T) {
	_, err := DensitySpec{}.model()
	assert.Error(t, err, "empty density")

	_, err = DensitySpec{Uniform: 1, Exp: &ExponentialSpec{}}.model()
	assert.Error(t, err, "both models given")

	m, err := DensitySpec{Uniform: 2.8}.model()
	assert.NoError(t, err)
	assert.True(t, m.Uniform())
}
