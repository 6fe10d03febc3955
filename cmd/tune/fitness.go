package main

import (
	"math"

	"github.com/cvolger/nbodysph/config"
	"github.com/cvolger/nbodysph/integrator"
	"github.com/cvolger/nbodysph/kernel"
	"github.com/cvolger/nbodysph/particle"
	"github.com/cvolger/nbodysph/telemetry"
)

// FitnessEvaluator runs short reference simulations and scores a
// (theta, dt) pair by the fractional drift of total energy over the
// run: lower drift is better (fitness is the drift itself, minimized).
type FitnessEvaluator struct {
	params     *ParamVector
	numSteps   int
	seeds      []int64
	numBodies  int
	baseConfig *config.Config
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, numSteps int, seeds []int64, numBodies int, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		numSteps:   numSteps,
		seeds:      seeds,
		numBodies:  numBodies,
		baseConfig: baseCfg,
	}
}

// Evaluate computes fitness for a raw (theta, dt) vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	clamped := fe.params.Clamp(raw)
	theta, dt := clamped[0], clamped[1]

	tab := kernel.New(fe.baseConfig.Kernel.TableSamples)

	var totalDrift float64
	for _, seed := range fe.seeds {
		store := particle.NewUniform(fe.numBodies, seed, fe.baseConfig.Output.DomainExtent)
		opts := integrator.Options{
			Theta:           theta,
			G:               fe.baseConfig.Physics.G,
			Softening:       fe.baseConfig.Physics.Softening,
			GammaMinus1:     fe.baseConfig.Physics.GammaMinus1,
			SmoothingLength: fe.baseConfig.Kernel.SmoothingLength,
			KernelNorm:      fe.baseConfig.Derived.KernelNormFactor,
			LeafCapacity:    fe.baseConfig.Octree.LeafCapacity,
			DepthLimit:      fe.baseConfig.Octree.DepthLimit,
			Kernel:          tab,
		}

		initial := totalEnergy(store)
		drift := 1.0 // degenerate runs are scored as a drift of 1 (100%)
		ranClean := true
		for s := 0; s < fe.numSteps; s++ {
			if err := integrator.Step(store, dt, opts); err != nil {
				ranClean = false
				break
			}
		}
		if ranClean {
			final := totalEnergy(store)
			drift = math.Abs(final-initial) / math.Max(math.Abs(initial), 1e-12)
		}
		totalDrift += drift
	}

	return totalDrift / float64(len(fe.seeds))
}

func totalEnergy(store particle.Store) float64 {
	d := telemetry.ComputeDiagnostics(store, 0, 0)
	return d.TotalEnergy
}
