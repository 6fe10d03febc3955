package particle

import (
	"testing"

	"github.com/cvolger/nbodysph/vec3"
)

func TestZeroAccelerationsAndEnergyRates(t *testing.T) {
	s := Store{
		{Acc: vec3.Vec3{X: 1, Y: 1, Z: 1}, DUDt: 5},
		{Acc: vec3.Vec3{X: 2, Y: 2, Z: 2}, DUDt: 7},
	}
	s.ZeroAccelerations()
	s.ZeroEnergyRates()
	for i, p := range s {
		if p.Acc != (vec3.Vec3{}) {
			t.Errorf("particle %d: Acc = %v, want zero", i, p.Acc)
		}
		if p.DUDt != 0 {
			t.Errorf("particle %d: DUDt = %v, want 0", i, p.DUDt)
		}
	}
}

func TestTotalMass(t *testing.T) {
	s := Store{{Mass: 1}, {Mass: 2}, {Mass: 3.5}}
	if got, want := s.TotalMass(), 6.5; got != want {
		t.Errorf("TotalMass = %v, want %v", got, want)
	}
}

func TestBounds(t *testing.T) {
	s := Store{
		{Pos: vec3.Vec3{X: 1, Y: -2, Z: 3}},
		{Pos: vec3.Vec3{X: -5, Y: 4, Z: 0}},
		{Pos: vec3.Vec3{X: 2, Y: 0, Z: -9}},
	}
	min, max := s.Bounds()
	wantMin := vec3.Vec3{X: -5, Y: -2, Z: -9}
	wantMax := vec3.Vec3{X: 2, Y: 4, Z: 3}
	if min != wantMin {
		t.Errorf("min = %v, want %v", min, wantMin)
	}
	if max != wantMax {
		t.Errorf("max = %v, want %v", max, wantMax)
	}
}

func TestKickDrift(t *testing.T) {
	s := Store{
		{Pos: vec3.Vec3{X: 0}, Vel: vec3.Vec3{X: 1}, Acc: vec3.Vec3{X: 2}, U: 1, DUDt: 4},
	}
	s.KickDrift(0.5)

	if want := (vec3.Vec3{X: 2}); s[0].Vel != want {
		t.Errorf("Vel = %v, want %v (kicked by a*dtHalf)", s[0].Vel, want)
	}
	if want := 3.0; s[0].U != want {
		t.Errorf("U = %v, want %v", s[0].U, want)
	}
	// Drift uses the post-kick velocity: x += 2 * 0.5 = 1.
	if want := (vec3.Vec3{X: 1}); s[0].Pos != want {
		t.Errorf("Pos = %v, want %v (drift must use post-kick velocity)", s[0].Pos, want)
	}
}

func TestBoundsEmpty(t *testing.T) {
	var s Store
	min, max := s.Bounds()
	if min != (vec3.Vec3{}) || max != (vec3.Vec3{}) {
		t.Errorf("Bounds on empty store = (%v, %v), want zeros", min, max)
	}
}
