// Package octree builds a cubic, axis-aligned Barnes–Hut octree over a
// particle store: each node carries an aggregate mass and center of
// mass, and leaves carry up to a fixed small number of particle
// records. Every node, not only a leaf, keeps the full list of particles
// in its cell; subdividing a node does not clear its list. The tree is a
// scoped resource, rebuilt from scratch at the
// start of each integrator half-step and discarded at the end of it.
//
// Grounded on the tile type in gonum.org/v1/gonum/spatial/barneshut
// (insert/summarize/quadrant-split structure), generalized from a
// quadtree to an octree with an explicit depth budget instead of
// implicit recursion depth.
package octree

import (
	"github.com/cvolger/nbodysph/particle"
	"github.com/cvolger/nbodysph/vec3"
)

// Body is a particle record copied into the tree at build time. It
// carries the originating Particle Store index so that density values
// computed during traversal can be propagated back into every tree copy
// by identity (see Sync), rather than by positional alignment, which
// the build procedure does not preserve below the root.
type Body struct {
	Index int
	Mass  float64
	Pos   vec3.Vec3
	Vel   vec3.Vec3
	Dens  float64
	Pres  float64
}

// Node is a single octree cell.
type Node struct {
	Center vec3.Vec3
	Side   float64

	Mass float64   // aggregate mass M
	COM  vec3.Vec3 // mass-weighted center of mass C

	Particles []Body   // every particle owned by this node (see package doc)
	Children  [8]*Node // nil entries indicate an empty or absent octant
	Leaf      bool
}

// octantOffsets gives the sign pattern for each of the 8 child indices;
// bit0 selects X, bit1 selects Y, bit2 selects Z (+1 if set, -1 if not).
var octantOffsets = [8]vec3.Vec3{
	{X: -1, Y: -1, Z: -1}, // 0b000
	{X: +1, Y: -1, Z: -1}, // 0b001
	{X: -1, Y: +1, Z: -1}, // 0b010
	{X: +1, Y: +1, Z: -1}, // 0b011
	{X: -1, Y: -1, Z: +1}, // 0b100
	{X: +1, Y: -1, Z: +1}, // 0b101
	{X: -1, Y: +1, Z: +1}, // 0b110
	{X: +1, Y: +1, Z: +1}, // 0b111
}

// octant classifies p into a child index of a node centered at c, per
// axis testing whether the coordinate exceeds the center (§4.3 step 4).
func octant(p, c vec3.Vec3) int {
	k := 0
	if p.X > c.X {
		k |= 1
	}
	if p.Y > c.Y {
		k |= 2
	}
	if p.Z > c.Z {
		k |= 4
	}
	return k
}

// Bodies converts a particle store into the Body records the tree build
// copies from; it is called once to seed the root.
func Bodies(store particle.Store) []Body {
	bodies := make([]Body, len(store))
	for i, p := range store {
		bodies[i] = Body{Index: i, Mass: p.Mass, Pos: p.Pos, Vel: p.Vel, Dens: p.Dens, Pres: p.Pres}
	}
	return bodies
}

// BuildFromStore computes the root cell enclosing every particle in
// store (§4.8 step 1: center is the midpoint of the component-wise
// min/max, side is the largest component-wise extent) and builds the
// full tree with the given leaf capacity and depth budget.
func BuildFromStore(store particle.Store, leafCap, depthLimit int) *Node {
	min, max := store.Bounds()
	center := min.Add(max).Scale(0.5)
	extent := max.Sub(min)
	side := extent.X
	if extent.Y > side {
		side = extent.Y
	}
	if extent.Z > side {
		side = extent.Z
	}
	return Build(Bodies(store), center, side, leafCap, depthLimit)
}

// Build constructs the root node enclosing every body in bodies and
// recursively subdivides it down to leafCap particles per leaf or a
// depth budget of depthLimit levels, whichever comes first (§4.3).
func Build(bodies []Body, center vec3.Vec3, side float64, leafCap, depthLimit int) *Node {
	root := &Node{Center: center, Side: side}
	root.build(bodies, leafCap, depthLimit)
	return root
}

func (n *Node) build(bodies []Body, leafCap, depth int) {
	n.Particles = bodies

	var mass float64
	var com vec3.Vec3
	for _, b := range bodies {
		mass += b.Mass
		com = com.Add(b.Pos.Scale(b.Mass))
	}
	if mass == 0 {
		n.COM = n.Center
	} else {
		n.COM = com.Scale(1 / mass)
	}
	n.Mass = mass

	if len(bodies) <= leafCap || depth <= 0 {
		n.Leaf = true
		return
	}

	var buckets [8][]Body
	for _, b := range bodies {
		k := octant(b.Pos, n.Center)
		buckets[k] = append(buckets[k], b)
	}

	childSide := n.Side / 2
	for k := 0; k < 8; k++ {
		if len(buckets[k]) == 0 {
			continue
		}
		childCenter := n.Center.Add(octantOffsets[k].Scale(n.Side / 4))
		child := &Node{Center: childCenter, Side: childSide}
		child.build(buckets[k], leafCap, depth-1)
		n.Children[k] = child
	}
}

// Sync propagates freshly computed density and pressure values from the
// particle store back into every tree node's copies, matched by the
// Index each Body carries. This must run after density and the equation
// of state, before the SPH force traversal reads ρ and P from the tree.
func (n *Node) Sync(dens, pres []float64) {
	if n == nil {
		return
	}
	for i := range n.Particles {
		idx := n.Particles[i].Index
		n.Particles[i].Dens = dens[idx]
		n.Particles[i].Pres = pres[idx]
	}
	for _, c := range n.Children {
		c.Sync(dens, pres)
	}
}

// Count returns the number of bodies this node owns directly (its own
// particle list, not a sum over descendants — see package doc: every
// ancestor keeps a full copy of its subtree's particles).
func (n *Node) Count() int {
	return len(n.Particles)
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Leaf
}
