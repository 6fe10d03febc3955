// Package integrator advances a particle store through one leapfrog
// step of coupled gravity and SPH, per the pipeline: octree build, SPH
// density, equation of state, Barnes–Hut gravity, SPH pressure force,
// kick-drift-kick.
//
// Grounded on the overall phase sequencing and PerfCollector
// instrumentation pattern of game.Game's per-tick update loop, with the
// tick's individual subsystems replaced by the octree/gravity/sph
// packages.
package integrator

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cvolger/nbodysph/gravity"
	"github.com/cvolger/nbodysph/kernel"
	"github.com/cvolger/nbodysph/octree"
	"github.com/cvolger/nbodysph/particle"
	"github.com/cvolger/nbodysph/sph"
	"github.com/cvolger/nbodysph/telemetry"
)

// Options configures one Step invocation.
type Options struct {
	Theta           float64
	G               float64
	Softening       float64
	GammaMinus1     float64
	SmoothingLength float64

	// KernelNorm is the precomputed 1/(π h³) normalization for
	// SmoothingLength (see sph.Norm). Left zero, it is derived from
	// SmoothingLength on every Step; callers holding a config-derived
	// value (config.Config.Derived.KernelNormFactor) should set it
	// directly instead.
	KernelNorm float64
	LeafCapacity    int
	DepthLimit      int
	Kernel          *kernel.Table

	// Parallel opts into chunked goroutine execution of the gravity,
	// density, and force traversals. The semantic contract is
	// single-threaded (§5); this is a permitted optimization only.
	Parallel bool

	// Perf, if non-nil, receives per-phase timing for this step.
	Perf *telemetry.PerfCollector
}

func (o Options) leafCap() int {
	if o.LeafCapacity < 1 {
		return 1
	}
	return o.LeafCapacity
}

func (o Options) depthLimit() int {
	if o.DepthLimit < 1 {
		return 1000
	}
	return o.DepthLimit
}

func (o Options) gravityG() float64 {
	if o.G == 0 {
		return gravity.DefaultG
	}
	return o.G
}

func (o Options) gravitySoftening() float64 {
	if o.Softening == 0 {
		return gravity.DefaultSoftening
	}
	return o.Softening
}

func (o Options) gammaMinus1() float64 {
	if o.GammaMinus1 == 0 {
		return sph.DefaultGammaMinusOne
	}
	return o.GammaMinus1
}

func (o Options) kernelNorm() float64 {
	if o.KernelNorm == 0 {
		return sph.Norm(o.SmoothingLength)
	}
	return o.KernelNorm
}

func (o Options) startPhase(name string) {
	if o.Perf != nil {
		o.Perf.StartPhase(name)
	}
}

// Step advances store by one full timestep dt, via two half-step
// sub-passes (§4.8). It returns sph.ErrDegenerateDensity (wrapped with
// the offending particle index) if density propagation produces a zero
// density anywhere; the caller decides whether that is fatal.
func Step(store particle.Store, dt float64, opts Options) error {
	if opts.Perf != nil {
		opts.Perf.StartStep()
	}

	// Sub-step A (first half): §4.8 steps 1-10. Acc is zeroed before the
	// gravity traversal (step 5) and again after the drift (step 9).
	if err := halfStep(store, dt, opts, false, true, true); err != nil {
		return fmt.Errorf("sub-step A: %w", err)
	}

	// Sub-step B (second half): §4.8 steps 11-18.
	//
	// Step 14 is deliberately a no-op: accelerations were zeroed at the
	// end of sub-step A (step 9) and are NOT re-zeroed here before this
	// gravity traversal, nor after this half-step's final drift — the
	// leftover gravity+pressure acceleration carries into the next full
	// step, where sub-step A's own step 5 zeroes it before use. This
	// reproduces the source pipeline's omission literally rather than
	// silently correcting it (Open Question §9.2).
	if err := halfStep(store, dt, opts, true, false, false); err != nil {
		return fmt.Errorf("sub-step B: %w", err)
	}

	if opts.Perf != nil {
		opts.Perf.EndStep()
	}
	return nil
}

// halfStep runs the common tree-build/density/EOS/gravity/force
// sequence shared by both sub-steps, then the half-step's kick-drift,
// and finally tears down the tree (simply by letting root go out of
// scope; see §5 on scoped tree ownership).
//
// clampPressure selects the EOS floor used by sub-step B. zeroAccBefore
// zeroes Acc immediately before the gravity traversal (true only for
// sub-step A, step 5). zeroAccAfter zeroes Acc immediately after this
// half-step's kick-drift (true only for sub-step A, step 9); the
// internal-energy rate is always zeroed after its kick is consumed,
// per §4.7's "reset to 0 immediately after being consumed" rule.
func halfStep(store particle.Store, dt float64, opts Options, clampPressure, zeroAccBefore, zeroAccAfter bool) error {
	opts.startPhase(telemetry.PhaseTreeBuild)
	root := octree.BuildFromStore(store, opts.leafCap(), opts.depthLimit())

	opts.startPhase(telemetry.PhaseDensity)
	if err := computeDensity(root, store, opts); err != nil {
		return err
	}

	opts.startPhase(telemetry.PhaseEOS)
	sph.EOS(store, opts.gammaMinus1(), clampPressure)

	dens := make([]float64, len(store))
	pres := make([]float64, len(store))
	for i := range store {
		dens[i] = store[i].Dens
		pres[i] = store[i].Pres
	}
	root.Sync(dens, pres)

	if zeroAccBefore {
		store.ZeroAccelerations()
	}

	opts.startPhase(telemetry.PhaseGravity)
	computeGravity(root, store, opts)

	opts.startPhase(telemetry.PhaseForce)
	computeForce(root, store, opts)

	opts.startPhase(telemetry.PhaseKickDrift)
	store.KickDrift(dt / 2)

	store.ZeroEnergyRates()
	if zeroAccAfter {
		store.ZeroAccelerations()
	}

	return nil
}

func computeDensity(root *octree.Node, store particle.Store, opts Options) error {
	norm := opts.kernelNorm()
	if !opts.Parallel {
		return sph.Density(root, store, opts.SmoothingLength, norm, opts.Kernel)
	}
	return parallelRange(len(store), func(lo, hi int) error {
		return sph.DensityRange(root, store, opts.SmoothingLength, norm, opts.Kernel, lo, hi)
	})
}

func computeGravity(root *octree.Node, store particle.Store, opts Options) {
	g, softening := opts.gravityG(), opts.gravitySoftening()
	if !opts.Parallel {
		gravity.Traverse(root, store, opts.Theta, g, softening)
		return
	}
	_ = parallelRange(len(store), func(lo, hi int) error {
		gravity.TraverseRange(root, store, opts.Theta, g, softening, lo, hi)
		return nil
	})
}

func computeForce(root *octree.Node, store particle.Store, opts Options) {
	norm := opts.kernelNorm()
	if !opts.Parallel {
		sph.Force(root, store, opts.SmoothingLength, norm, opts.Kernel)
		return
	}
	_ = parallelRange(len(store), func(lo, hi int) error {
		sph.ForceRange(root, store, opts.SmoothingLength, norm, opts.Kernel, lo, hi)
		return nil
	})
}

// parallelRange partitions [0, n) into runtime.GOMAXPROCS(0) disjoint
// chunks and runs fn over each chunk on its own goroutine, grounded on
// the snapshot/chunk/sync.WaitGroup structure of the teacher's
// updateBehaviorAndPhysicsParallel (Phase B: parallel compute over
// disjoint index ranges, each worker touching only its own slice).
func parallelRange(n int, fn func(lo, hi int) error) error {
	if n == 0 {
		return nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > n {
		numWorkers = n
	}
	chunkSize := (n + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	errs := make([]error, numWorkers)
	for w := 0; w < numWorkers; w++ {
		lo := w * chunkSize
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(workerID, lo, hi int) {
			defer wg.Done()
			errs[workerID] = fn(lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
