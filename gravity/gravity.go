// Package gravity computes per-particle gravitational acceleration by
// Barnes–Hut traversal of an octree, using the monopole (center-of-mass)
// approximation.
//
// Grounded on tile.forceOn in gonum.org/v1/gonum/spatial/barneshut (the
// s/d < theta || t.particle != nil opening test, here generalized with
// softening) and the node.width/dist < theta test in the reddit-cluster-map
// Barnes–Hut reference.
package gravity

import (
	"math"

	"github.com/cvolger/nbodysph/octree"
	"github.com/cvolger/nbodysph/particle"
	"github.com/cvolger/nbodysph/vec3"
)

// DefaultG is the reference gravitational constant (§6).
const DefaultG = 6.67430e-11

// DefaultSoftening is the reference softening length ε (§6): the small
// additive term in the squared softened distance that removes the 1/r
// singularity at small separations.
const DefaultSoftening = 1.0e-5

// DefaultTheta is the Barnes–Hut opening-angle acceptance threshold.
const DefaultTheta = 0.5

// Traverse accumulates the gravitational acceleration on every particle
// in store into its Acc field, using the given tree, opening angle
// theta, gravitational constant g and softening length. It does not
// zero Acc first; callers that need fresh accelerations must zero them
// before calling Traverse (§4.8).
func Traverse(root *octree.Node, store particle.Store, theta, g, softening float64) {
	TraverseRange(root, store, theta, g, softening, 0, len(store))
}

// TraverseRange is Traverse restricted to the half-open index range
// [lo, hi). It touches only store[lo:hi], so disjoint ranges may be
// driven by separate goroutines without locking (§5).
func TraverseRange(root *octree.Node, store particle.Store, theta, g, softening float64, lo, hi int) {
	for i := lo; i < hi; i++ {
		store[i].Acc = store[i].Acc.Add(accelerationOn(root, store[i].Pos, theta, g, softening))
	}
}

// accelerationOn computes the gravitational acceleration at position pos
// due to the mass distribution rooted at node.
func accelerationOn(node *octree.Node, pos vec3.Vec3, theta, g, softening float64) vec3.Vec3 {
	if node == nil || node.Mass == 0 {
		return vec3.Vec3{}
	}

	sep := pos.Sub(node.COM)
	d2 := sep.Norm2() + softening*softening
	d := math.Sqrt(d2)

	if node.Side/d < theta || node.IsLeaf() {
		if d == 0 {
			return vec3.Vec3{}
		}
		// a = -G*M*(x_p - C)/d^3
		return sep.Scale(-g * node.Mass / (d2 * d))
	}

	var acc vec3.Vec3
	for _, child := range node.Children {
		if child != nil {
			acc = acc.Add(accelerationOn(child, pos, theta, g, softening))
		}
	}
	return acc
}
