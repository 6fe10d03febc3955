// Package particle holds the authoritative simulation state: a flat,
// index-stable collection of SPH/gravity particles.
package particle

import (
	"math/rand/v2"

	"github.com/cvolger/nbodysph/vec3"
)

// Particle is a single SPH/gravity body.
type Particle struct {
	Mass   float64
	Pos    vec3.Vec3
	Vel    vec3.Vec3
	Acc    vec3.Vec3
	Dens   float64 // ρ, computed each half-step by the sph package
	Pres   float64 // P, computed by the equation of state
	U      float64 // internal energy per unit mass
	DUDt   float64 // internal energy rate du/dt
}

// Store is the contiguous, index-stable ordered sequence of particles
// that is consumed, in this order, by every traversal and by the
// integrator. No insertions or deletions occur post-initialization.
type Store []Particle

// ZeroAccelerations resets every particle's acceleration to zero. Called
// at the well-defined points in the integrator's pipeline where
// accumulation must start fresh (§4.7-§4.8).
func (s Store) ZeroAccelerations() {
	for i := range s {
		s[i].Acc = vec3.Vec3{}
	}
}

// ZeroEnergyRates resets every particle's du/dt to zero.
func (s Store) ZeroEnergyRates() {
	for i := range s {
		s[i].DUDt = 0
	}
}

// NewUniform builds the reference initial condition (§6): n particles at
// uniform random positions in [0, extent)^3, mass 100, at rest, with
// internal energy 1 and density left at 0 (computed by the first density
// pass). seed makes the draw reproducible across runs.
//
// Grounded on the entity-construction style of game/factory.go's
// createNeuralOrganism, generalized from one organism per call to a
// batch constructor, and on the teacher's use of math/rand for spawn
// jitter, upgraded to the math/rand/v2 API.
func NewUniform(n int, seed int64, extent float64) Store {
	store := make(Store, n)
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	gen := rand.New(src)
	for i := range store {
		store[i] = Particle{
			Mass: 100,
			Pos: vec3.Vec3{
				X: gen.Float64() * extent,
				Y: gen.Float64() * extent,
				Z: gen.Float64() * extent,
			},
			U:    1,
			Pres: 1,
		}
	}
	return store
}

// KickDrift applies a kick of half-width dtHalf (v += a*dtHalf, u +=
// (du/dt)*dtHalf) followed by a drift over the same half-width using the
// just-kicked velocity (x += v*dtHalf), per §4.8 steps 8-9/17.
func (s Store) KickDrift(dtHalf float64) {
	for i := range s {
		s[i].Vel = s[i].Vel.Add(s[i].Acc.Scale(dtHalf))
		s[i].U += s[i].DUDt * dtHalf
		s[i].Pos = s[i].Pos.Add(s[i].Vel.Scale(dtHalf))
	}
}

// TotalMass returns Σ m_p over the store.
func (s Store) TotalMass() float64 {
	var m float64
	for i := range s {
		m += s[i].Mass
	}
	return m
}

// Bounds returns the component-wise min and max of all particle
// positions, used to size the octree's root cell (§4.8 step 1).
func (s Store) Bounds() (min, max vec3.Vec3) {
	if len(s) == 0 {
		return vec3.Vec3{}, vec3.Vec3{}
	}
	min, max = s[0].Pos, s[0].Pos
	for _, p := range s[1:] {
		if p.Pos.X < min.X {
			min.X = p.Pos.X
		}
		if p.Pos.Y < min.Y {
			min.Y = p.Pos.Y
		}
		if p.Pos.Z < min.Z {
			min.Z = p.Pos.Z
		}
		if p.Pos.X > max.X {
			max.X = p.Pos.X
		}
		if p.Pos.Y > max.Y {
			max.Y = p.Pos.Y
		}
		if p.Pos.Z > max.Z {
			max.Z = p.Pos.Z
		}
	}
	return min, max
}
