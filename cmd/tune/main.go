// Package main searches for an opening angle and timestep that minimize
// energy drift over a short reference run, via CMA-ES.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/cvolger/nbodysph/config"
)

// searchLog appends one CSV row per evaluation and keeps the best
// (lowest-drift) parameter vector seen so far.
type searchLog struct {
	w    *csv.Writer
	n    int
	best float64
	vals []float64
}

func newSearchLog(path string, params *ParamVector) (*searchLog, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := csv.NewWriter(f)
	header := []string{"eval", "fitness"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	w.Write(header)
	return &searchLog{w: w, best: math.MaxFloat64}, f, nil
}

func (sl *searchLog) record(fitness float64, clamped []float64) {
	sl.n++
	if fitness < sl.best {
		sl.best = fitness
		sl.vals = append([]float64(nil), clamped...)
	}

	row := make([]string, 0, len(clamped)+2)
	row = append(row, strconv.Itoa(sl.n), fmt.Sprintf("%.6f", fitness))
	for _, v := range clamped {
		row = append(row, fmt.Sprintf("%.6f", v))
	}
	sl.w.Write(row)
	sl.w.Flush()
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	numSteps := flag.Int("steps", 50, "Number of integrator steps per evaluation")
	numBodies := flag.Int("bodies", 100, "Number of bodies per evaluation")
	numSeeds := flag.Int("seeds", 3, "Number of seeds averaged per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()

	seeds := make([]int64, *numSeeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *numSteps, seeds, *numBodies, baseCfg)

	sl, logFile, err := newSearchLog(filepath.Join(*outputDir, "tune_log.csv"), params)
	if err != nil {
		log.Fatalf("creating log file: %v", err)
	}
	defer logFile.Close()

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}

	fmt.Printf("searching theta/dt over %d evals (population %d): %d seeds x %d bodies x %d steps\n",
		*maxEvals, popSize, *numSeeds, *numBodies, *numSteps)

	start := time.Now()
	objective := func(x []float64) float64 {
		raw := params.Denormalize(x)
		fitness := evaluator.Evaluate(raw)
		sl.record(fitness, params.Clamp(raw))
		fmt.Printf("eval %d/%d: drift=%.6f best=%.6f elapsed=%s\n",
			sl.n, *maxEvals, fitness, sl.best, time.Since(start).Round(time.Second))
		return fitness
	}

	result, err := optimize.Minimize(
		optimize.Problem{Func: objective},
		params.Normalize(params.DefaultVector()),
		&optimize.Settings{FuncEvaluations: *maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		log.Printf("search ended early: %v", err)
	}

	best := sl.vals
	if best == nil {
		best = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\n%d evaluations in %s, best drift %.6f\n", sl.n, time.Since(start).Round(time.Second), sl.best)
	for i, spec := range params.Specs {
		fmt.Printf("  %s = %.6f\n", spec.Name, best[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("reloading base config: %v", err)
	}
	params.ApplyToConfig(bestCfg, best)

	outPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(outPath); err != nil {
		log.Printf("writing best config: %v", err)
		return
	}
	fmt.Printf("best config written to %s\n", outPath)
}
