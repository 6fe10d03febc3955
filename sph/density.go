// Package sph implements the tree-restricted SPH density and
// pressure-force traversals (§4.5–§4.7 of the design notes).
//
// Grounded on the density-accumulation loop in the standalone
// go-raylib-water SPH prototype (computeDensities, poly6 kernel summed
// over neighbors within a support radius), generalized here from a
// uniform grid to the Barnes–Hut octree's tree-restricted neighbor
// search.
package sph

import (
	"fmt"
	"math"

	"github.com/cvolger/nbodysph/kernel"
	"github.com/cvolger/nbodysph/octree"
	"github.com/cvolger/nbodysph/particle"
	"github.com/cvolger/nbodysph/vec3"
)

// DefaultSmoothingLength is the global smoothing length h (§6).
const DefaultSmoothingLength = 10.0

// Norm returns the 3D cubic-spline normalization 1/(π h³) for a given
// smoothing length. Density and Force both take this precomputed rather
// than recomputing it per call; callers without a config-derived value
// on hand (tests, ad hoc callers) can fall back to Norm(h).
func Norm(h float64) float64 {
	return 1 / (math.Pi * h * h * h)
}

// overlaps reports whether node's cell overlaps the kernel support of a
// particle at pos, per axis: |x_p[j] - c_node[j]| < 2h + s_node/2 (§4.5).
func overlaps(node *octree.Node, pos vec3.Vec3, h float64) bool {
	support := 2*h + node.Side/2
	d := pos.Sub(node.Center)
	return math.Abs(d.X) < support && math.Abs(d.Y) < support && math.Abs(d.Z) < support
}

// Density computes ρ for every particle in store by tree-restricted
// neighbor search and writes it into store[i].Dens. norm must be
// 1/(π h³) for the same h (see Norm); callers that already hold the
// config-derived value pass it directly instead of recomputing it here.
// Density returns ErrDegenerateDensity (wrapped with the particle index)
// if any resulting density is exactly zero, which §7 treats as fatal.
func Density(root *octree.Node, store particle.Store, h, norm float64, tab *kernel.Table) error {
	return DensityRange(root, store, h, norm, tab, 0, len(store))
}

// DensityRange is Density restricted to the half-open index range [lo,
// hi). It touches only store[lo:hi], so disjoint ranges may be driven by
// separate goroutines without locking (§5).
func DensityRange(root *octree.Node, store particle.Store, h, norm float64, tab *kernel.Table, lo, hi int) error {
	for i := lo; i < hi; i++ {
		store[i].Dens = densityAt(root, store[i].Pos, h, norm, tab)
		if store[i].Dens == 0 {
			return fmt.Errorf("sph: particle %d: %w", i, ErrDegenerateDensity)
		}
	}
	return nil
}

// densityAt sums kernel contributions from every neighbor whose support
// overlaps pos, descending the tree per the §4.5 traversal predicate.
func densityAt(node *octree.Node, pos vec3.Vec3, h, norm float64, tab *kernel.Table) float64 {
	if node == nil || !overlaps(node, pos, h) {
		return 0
	}

	n := node.Count()
	switch {
	case n > 1 && !node.IsLeaf():
		var sum float64
		for _, child := range node.Children {
			if child != nil {
				sum += densityAt(child, pos, h, norm, tab)
			}
		}
		return sum
	case n == 1:
		q := node.Particles[0]
		r := pos.Sub(q.Pos).Norm()
		w, _ := tab.LookupDistance(r, h)
		return q.Mass * w * norm
	default:
		return 0
	}
}
