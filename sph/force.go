package sph

import (
	"github.com/cvolger/nbodysph/kernel"
	"github.com/cvolger/nbodysph/octree"
	"github.com/cvolger/nbodysph/particle"
	"github.com/cvolger/nbodysph/vec3"
)

// DefaultGammaMinusOne is the reference ideal-gas equation-of-state
// factor (γ − 1 = 2/3 for the reference γ = 5/3, §6).
const DefaultGammaMinusOne = 2.0 / 3.0

// EOS sets P_p = (γ-1)·u_p·ρ_p for every particle, using the given γ−1
// factor. When clamp is true (the second half-step's EOS pass, which runs
// before that half-step's gravity and force traversals), pressure is
// additionally floored at zero.
func EOS(store particle.Store, gammaMinus1 float64, clamp bool) {
	for i := range store {
		p := gammaMinus1 * store[i].U * store[i].Dens
		if clamp && p < 0 {
			p = 0
		}
		store[i].Pres = p
	}
}

// Force accumulates pressure acceleration into store[i].Acc (added to
// whatever the gravity traversal already wrote there) and internal
// energy rate into store[i].DUDt, by the same tree-restricted neighbor
// search as Density (§4.7). norm must be 1/(π h³) for the same h, same
// convention as Density.
//
// Grounded on the symmetric pressure-force form and spikyGrad
// kernel-gradient accumulation in the go-raylib-water prototype's
// computeForces, restaged onto the octree's neighbor search.
func Force(root *octree.Node, store particle.Store, h, norm float64, tab *kernel.Table) {
	ForceRange(root, store, h, norm, tab, 0, len(store))
}

// ForceRange is Force restricted to the half-open index range [lo, hi).
// It touches only store[lo:hi], so disjoint ranges may be driven by
// separate goroutines without locking (§5).
func ForceRange(root *octree.Node, store particle.Store, h, norm float64, tab *kernel.Table, lo, hi int) {
	for i := lo; i < hi; i++ {
		accDelta, duDelta := forceAt(root, store[i], h, norm, tab)
		store[i].Acc = store[i].Acc.Add(accDelta)
		store[i].DUDt += duDelta
	}
}

func forceAt(node *octree.Node, p particle.Particle, h, norm float64, tab *kernel.Table) (vec3.Vec3, float64) {
	if node == nil || !overlaps(node, p.Pos, h) {
		return vec3.Vec3{}, 0
	}

	n := node.Count()
	switch {
	case n > 1 && !node.IsLeaf():
		var acc vec3.Vec3
		var du float64
		for _, child := range node.Children {
			if child != nil {
				a, d := forceAt(child, p, h, norm, tab)
				acc = acc.Add(a)
				du += d
			}
		}
		return acc, du
	case n == 1:
		q := node.Particles[0]
		sep := p.Pos.Sub(q.Pos)
		r := sep.Norm()
		if r == 0 {
			// Self-interaction guard (§4.7): excludes the self-term from
			// pressure force and energy rate; the self-gradient cancels
			// analytically and contributes nothing here.
			return vec3.Vec3{}, 0
		}

		nHat := sep.Scale(1 / r)
		_, dwdq := tab.LookupDistance(r, h)
		// dW̃/dq is ≤0 over the kernel's support, so this points toward the
		// neighbor; the pressure term below negates it into a repulsive force.
		// norm/h carries the extra 1/h that turns density's π h³ normalization
		// into the gradient's π h⁴ one.
		gradW := nHat.Scale(dwdq * norm / h)

		pressureTerm := -q.Mass * (p.Pres/(p.Dens*p.Dens) + q.Pres/(q.Dens*q.Dens))
		acc := gradW.Scale(pressureTerm)

		vpq := p.Vel.Sub(q.Vel)
		du := (p.Pres / p.Dens) * q.Mass * vpq.Dot(gradW)

		return acc, du
	default:
		return vec3.Vec3{}, 0
	}
}
