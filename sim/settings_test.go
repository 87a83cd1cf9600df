package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"forward", Forward, false},
		{"", Forward, false},
		{"backward", Backward, false},
		{"both", Both, false},
		{"all", Both, false},
		{"sideways", Forward, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseMode(%q)", tt.in)
			continue
		}
		assert.NoError(t, err, "ParseMode(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseMode(%q)", tt.in)
	}
}

func TestDefaultTransportSettings(t *testing.T) {
	s := DefaultTransportSettings()
	assert.Equal(t, Forward, s.Mode)
	assert.Equal(t, Discrete, s.Absorption)
	assert.Equal(t, ScatteringFunction, s.Compton.Model)
	assert.True(t, s.Rayleigh)
	assert.True(t, s.VolumeSources)
	assert.NoError(t, s.Validate())
}

func TestTransportSettings_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TransportSettings)
	}{
		{"inverted energy bounds", func(s *TransportSettings) {
			s.EnergyMin, s.EnergyMax = 2.0, 1.0
		}},
		{"zero energy min", func(s *TransportSettings) {
			s.EnergyMin = 0
		}},
		{"negative length max", func(s *TransportSettings) {
			s.LengthMax = -1
		}},
		{"backward with no source information", func(s *TransportSettings) {
			s.Mode = Backward
			s.SourceEnergies = nil
			s.HasBoundary = false
		}},
		{"source energies without volume sources", func(s *TransportSettings) {
			s.SourceEnergies = []float64{1.0}
			s.VolumeSources = false
		}},
		{"non-positive source energy", func(s *TransportSettings) {
			s.Mode = Backward
			s.SourceEnergies = []float64{-0.5}
		}},
		{"degenerate grid", func(s *TransportSettings) {
			s.Grid.EnergyNodes = 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultTransportSettings()
			tt.mutate(&s)
			err := s.Validate()
			assert.Error(t, err)
			ke, ok := err.(*KernelError)
			if assert.True(t, ok) {
				assert.Equal(t, ErrConfiguration, ke.Kind)
			}
		})
	}
}

func TestTransportSettings_BackwardWithSourcesValid(t *testing.T) {
	s := DefaultTransportSettings()
	s.Mode = Backward
	s.SourceEnergies = []float64{1.0, 0.662}
	assert.NoError(t, s.Validate())

	s.SourceEnergies = nil
	s.HasBoundary = true
	s.Boundary = 0
	assert.NoError(t, s.Validate())
}

func TestTransportSettings_TableNeeds(t *testing.T) {
	s := DefaultTransportSettings()
	assert.True(t, s.NeedsForward())
	assert.False(t, s.NeedsAdjoint())

	s.Mode = Backward
	s.SourceEnergies = []float64{1}
	assert.True(t, s.NeedsAdjoint())

	s.Mode = Both
	assert.True(t, s.NeedsForward())
	assert.True(t, s.NeedsAdjoint())
}
