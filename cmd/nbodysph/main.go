// Package main runs the coupled gravity/SPH simulation to completion and
// writes the final particle state to log.txt, with optional structured
// telemetry.
//
// Grounded on the root pthm-soup main.go's flag-driven, headless-capable
// driver loop, stripped of rendering and ECS: this simulation has no
// interactive/graphical surface (Non-goals), so only the -headless
// driver's logging and termination logic survives, generalized to the
// gravity/SPH step loop.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/cvolger/nbodysph/config"
	"github.com/cvolger/nbodysph/integrator"
	"github.com/cvolger/nbodysph/kernel"
	"github.com/cvolger/nbodysph/particle"
	"github.com/cvolger/nbodysph/sph"
	"github.com/cvolger/nbodysph/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = embedded defaults)")
	numParticles := flag.Int("n", 0, "Number of particles (0 = use config)")
	seed := flag.Int64("seed", 0, "Seed for uniform initial positions (0 = use config)")
	theta := flag.Float64("theta", 0, "Barnes-Hut opening angle override (0 = use config)")
	outputDir := flag.String("output", "", "Directory for diagnostics.csv/perf.csv/config.yaml (empty = disabled)")
	logPath := flag.String("logfile", "log.txt", "Path for the final per-particle position/density dump")
	parallel := flag.Bool("parallel", false, "Run density/gravity/force traversals on chunked goroutines")
	diagInterval := flag.Int("diag-interval", 0, "Write a diagnostics row every N steps (0 = use config)")
	flag.Parse()

	config.MustInit(*configPath)
	cfg := config.Cfg()

	n := cfg.Output.NumParticles
	if *numParticles > 0 {
		n = *numParticles
	}
	runSeed := cfg.Output.Seed
	if *seed != 0 {
		runSeed = *seed
	}
	runTheta := cfg.Physics.Theta
	if *theta != 0 {
		runTheta = *theta
	}
	interval := cfg.Output.DiagnosticsInterval
	if *diagInterval != 0 {
		interval = *diagInterval
	}

	store := particle.NewUniform(n, runSeed, cfg.Output.DomainExtent)
	tab := kernel.New(cfg.Kernel.TableSamples)

	perf := telemetry.NewPerfCollector(cfg.Output.PerfCollectorWindow)
	opts := integrator.Options{
		Theta:           runTheta,
		G:               cfg.Physics.G,
		Softening:       cfg.Physics.Softening,
		GammaMinus1:     cfg.Physics.GammaMinus1,
		SmoothingLength: cfg.Kernel.SmoothingLength,
		KernelNorm:      cfg.Derived.KernelNormFactor,
		LeafCapacity:    cfg.Octree.LeafCapacity,
		DepthLimit:      cfg.Octree.DepthLimit,
		Kernel:          tab,
		Parallel:        *parallel,
		Perf:            perf,
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		log.Fatalf("output: %v", err)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		log.Printf("writing config snapshot: %v", err)
	}

	slog.Info("run start", "particles", n, "seed", runSeed, "theta", runTheta, "dt", cfg.Integrator.DT, "t_end", cfg.Integrator.TEnd, "kernel_norm", cfg.Derived.KernelNormFactor)

	start := time.Now()
	stepIndex := int32(0)
	t := 0.0
	for t < cfg.Integrator.TEnd {
		if err := integrator.Step(store, cfg.Integrator.DT, opts); err != nil {
			if errors.Is(err, sph.ErrDegenerateDensity) {
				log.Fatalf("fatal: %v", err)
			}
			log.Fatalf("integrator step %d: %v", stepIndex, err)
		}
		t += cfg.Integrator.DT
		stepIndex++

		if om != nil && interval > 0 && stepIndex%int32(interval) == 0 {
			diag := telemetry.ComputeDiagnostics(store, stepIndex, t)
			if err := om.WriteDiagnostics(diag); err != nil {
				log.Printf("writing diagnostics at step %d: %v", stepIndex, err)
			}
			if cfg.Output.PerfFlushInterval > 0 && stepIndex%int32(cfg.Output.PerfFlushInterval) == 0 {
				stats := perf.Stats()
				stats.LogStats()
				if err := om.WritePerf(stats, stepIndex); err != nil {
					log.Printf("writing perf at step %d: %v", stepIndex, err)
				}
			}
		}
	}

	slog.Info("run complete", "steps", stepIndex, "sim_time", t, "wall_time", time.Since(start).String())

	if err := writeLog(*logPath, store); err != nil {
		log.Fatalf("writing %s: %v", *logPath, err)
	}
}

// writeLog writes one line per particle (x y z density) to path, failing
// if the file already exists so a run never silently clobbers another
// run's output (§7's output contract).
func writeLog(path string, store particle.Store) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists, refusing to overwrite", path)
		}
		return err
	}
	defer f.Close()

	for _, p := range store {
		if _, err := fmt.Fprintf(f, "%s %s %s %s\n",
			formatFloat(p.Pos.X), formatFloat(p.Pos.Y), formatFloat(p.Pos.Z), formatFloat(p.Dens)); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return fmt.Sprintf("%.17g", v)
}
