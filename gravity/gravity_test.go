package gravity

import (
	"math"
	"testing"

	"github.com/cvolger/nbodysph/octree"
	"github.com/cvolger/nbodysph/particle"
	"github.com/cvolger/nbodysph/vec3"
)

// TestSingleParticleNoSelfForce reproduces scenario 2 (§8): a lone
// particle's own node has its center of mass exactly at its position, so
// the softened self-interaction yields exactly zero acceleration.
func TestSingleParticleNoSelfForce(t *testing.T) {
	store := particle.Store{{Mass: 100, Pos: vec3.Vec3{X: 3, Y: 4, Z: 5}}}
	root := octree.BuildFromStore(store, 1, 1000)

	Traverse(root, store, DefaultTheta, DefaultG, DefaultSoftening)

	if store[0].Acc != (vec3.Vec3{}) {
		t.Errorf("Acc = %v, want zero", store[0].Acc)
	}
}

func directSum(store particle.Store, i int) vec3.Vec3 {
	var acc vec3.Vec3
	for j, q := range store {
		if j == i {
			continue
		}
		sep := store[i].Pos.Sub(q.Pos)
		d2 := sep.Norm2() + DefaultSoftening*DefaultSoftening
		d := math.Sqrt(d2)
		acc = acc.Add(sep.Scale(-DefaultG * q.Mass / (d2 * d)))
	}
	return acc
}

// TestTwoParticlesAttract reproduces scenario 1 (§8): two particles at
// rest attract each other along the line joining them.
func TestTwoParticlesAttract(t *testing.T) {
	store := particle.Store{
		{Mass: 1, Pos: vec3.Vec3{X: 0, Y: 0, Z: 0}},
		{Mass: 1, Pos: vec3.Vec3{X: 1, Y: 0, Z: 0}},
	}
	root := octree.BuildFromStore(store, 1, 1000)
	Traverse(root, store, DefaultTheta, DefaultG, DefaultSoftening)

	if store[0].Acc.X <= 0 {
		t.Errorf("particle 0 should accelerate toward particle 1 (+X), got Acc.X=%v", store[0].Acc.X)
	}
	if store[1].Acc.X >= 0 {
		t.Errorf("particle 1 should accelerate toward particle 0 (-X), got Acc.X=%v", store[1].Acc.X)
	}
	sum := store[0].Acc.Add(store[1].Acc)
	if math.Abs(sum.X) > 1e-20 || math.Abs(sum.Y) > 1e-20 || math.Abs(sum.Z) > 1e-20 {
		t.Errorf("accelerations are not antisymmetric (equal masses): sum=%v", sum)
	}
}

// TestBarnesHutConvergesToDirectSum reproduces scenario 5 (§8): a
// distant cluster accepted as a single monopole should match direct
// summation within O((s/d)^2) relative error.
func TestBarnesHutConvergesToDirectSum(t *testing.T) {
	store := particle.Store{
		{Mass: 10, Pos: vec3.Vec3{X: 0, Y: 0, Z: 0}},
		{Mass: 5, Pos: vec3.Vec3{X: 100, Y: 20, Z: 20}},
		{Mass: 5, Pos: vec3.Vec3{X: 101, Y: 21, Z: 20}},
		{Mass: 5, Pos: vec3.Vec3{X: 100, Y: 21, Z: 21}},
		{Mass: 5, Pos: vec3.Vec3{X: 101, Y: 20, Z: 21}},
	}

	want := directSum(store, 0)

	root := octree.BuildFromStore(store, 1, 1000)
	store.ZeroAccelerations()
	Traverse(root, store, DefaultTheta, DefaultG, DefaultSoftening)
	got := store[0].Acc

	relErr := got.Sub(want).Norm() / want.Norm()
	if relErr > 0.05 {
		t.Errorf("Barnes-Hut result diverges from direct sum: got %v, want %v (relErr=%v)", got, want, relErr)
	}
}

// TestThetaZeroIsExact checks that an opening angle near zero forces the
// traversal down to leaves everywhere, matching direct summation
// exactly (within floating point).
func TestThetaZeroIsExact(t *testing.T) {
	store := particle.Store{
		{Mass: 2, Pos: vec3.Vec3{X: 0, Y: 0, Z: 0}},
		{Mass: 3, Pos: vec3.Vec3{X: 2, Y: 1, Z: -1}},
		{Mass: 1, Pos: vec3.Vec3{X: -3, Y: 2, Z: 4}},
	}
	want := directSum(store, 1)

	root := octree.BuildFromStore(store, 1, 1000)
	store.ZeroAccelerations()
	Traverse(root, store, 1e-9, DefaultG, DefaultSoftening)
	got := store[1].Acc

	if got.Sub(want).Norm() > 1e-12*want.Norm() {
		t.Errorf("theta~0 traversal = %v, want direct sum %v", got, want)
	}
}
