package sim

import (
	"math"
	"testing"
)

// === Status Tests ===

func TestStatus_StringForms(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusLive, "LIVE"},
		{StatusAbsorbed, "ABSORBED"},
		{StatusBoundary, "BOUNDARY"},
		{StatusEnergyConstraint, "ENERGY_CONSTRAINT"},
		{StatusEnergyMax, "ENERGY_MAX"},
		{StatusEnergyMin, "ENERGY_MIN"},
		{StatusExit, "EXIT"},
		{StatusLengthMax, "LENGTH_MAX"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatus_StableCodes(t *testing.T) {
	// The integer values are part of the external interface and must
	// never be reordered.
	if StatusLive != 0 || StatusAbsorbed != 1 || StatusBoundary != 2 ||
		StatusEnergyConstraint != 3 || StatusEnergyMax != 4 ||
		StatusEnergyMin != 5 || StatusExit != 6 || StatusLengthMax != 7 {
		t.Fatal("terminal status codes have been renumbered")
	}
}

// === Vector3 Tests ===

func TestVector3_Normalized(t *testing.T) {
	v := Vector3{3, 4, 0}
	n, ok := v.Normalized()
	if !ok {
		t.Fatal("normalizing a finite vector failed")
	}
	if math.Abs(n.Norm()-1) > 1e-12 {
		t.Errorf("|normalized| = %v, want 1", n.Norm())
	}

	if _, ok := (Vector3{}).Normalized(); ok {
		t.Error("normalizing the zero vector reported ok")
	}
}

// === Rotation Tests ===

func TestRotateDirection_PreservesCosine(t *testing.T) {
	dirs := []Vector3{
		{0, 0, 1},
		{0, 0, -1}, // pole
		{1, 0, 0},
		{0.267261, 0.534522, 0.801784},
	}
	cosines := []float64{-1, -0.5, 0, 0.3, 0.999999, 1}
	for _, d := range dirs {
		d, _ = d.Normalized()
		for _, c := range cosines {
			for _, phi := range []float64{0, 1.1, math.Pi, 5.9} {
				out, ok := rotateDirection(d, c, phi)
				if !ok {
					t.Fatalf("rotation failed at d=%v cos=%v phi=%v", d, c, phi)
				}
				if math.Abs(out.Norm()-1) > 1e-9 {
					t.Errorf("|out| = %v after rotating %v by cos=%v", out.Norm(), d, c)
				}
				if got := out.Dot(d); math.Abs(got-c) > 1e-9 {
					t.Errorf("out.d = %v, want %v (d=%v phi=%v)", got, c, d, phi)
				}
			}
		}
	}
}

func TestRotateDirection_AzimuthCoversPlane(t *testing.T) {
	// Orthogonal deflections at the same cosine but different azimuths
	// must differ: the rotation is not collapsing the transverse plane.
	d := Vector3{0, 0, 1}
	a, _ := rotateDirection(d, 0, 0)
	b, _ := rotateDirection(d, 0, math.Pi/2)
	if math.Abs(a.Dot(b)) > 1e-9 {
		t.Errorf("pi/2-separated azimuths are not orthogonal: %v . %v = %v", a, b, a.Dot(b))
	}
}

// === PhotonState Tests ===

func TestNewPhotonState_UnitWeight(t *testing.T) {
	p := NewPhotonState(0.5, Vector3{}, Vector3{0, 0, 1})
	if p.Weight != 1 {
		t.Errorf("initial weight = %v, want 1", p.Weight)
	}
	if !p.FiniteWeight() {
		t.Error("fresh state fails the finite-weight check")
	}
	if !p.CheckDirection(1e-9) {
		t.Error("fresh state fails the unit-direction check")
	}
}

func TestPhotonState_FiniteWeight(t *testing.T) {
	tests := []struct {
		weight float64
		want   bool
	}{
		{1, true},
		{1e-300, true},
		{0, false},
		{-0.5, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tt := range tests {
		p := PhotonState{Weight: tt.weight}
		if got := p.FiniteWeight(); got != tt.want {
			t.Errorf("FiniteWeight(%v) = %v, want %v", tt.weight, got, tt.want)
		}
	}
}
