package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/cvolger/nbodysph/particle"
)

// Diagnostics holds aggregated conservation and distribution statistics
// for a single integrator step, used to detect drift over a run.
type Diagnostics struct {
	StepIndex  int32   `csv:"step"`
	SimTimeSec float64 `csv:"sim_time"`

	TotalMass float64 `csv:"total_mass"`

	// Linear momentum components; a stable integrator holds these near
	// their initial value for an isolated system.
	MomentumX float64 `csv:"momentum_x"`
	MomentumY float64 `csv:"momentum_y"`
	MomentumZ float64 `csv:"momentum_z"`

	KineticEnergy  float64 `csv:"kinetic_energy"`
	InternalEnergy float64 `csv:"internal_energy"`
	TotalEnergy    float64 `csv:"total_energy"`

	DensityMean float64 `csv:"density_mean"`
	DensityP10  float64 `csv:"density_p10"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`

	PressureMean float64 `csv:"pressure_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles from a slice of
// per-particle values (density, pressure, etc).
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = floats.Sum(values) / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeDiagnostics summarizes store's conservation quantities and
// density/pressure distributions at the given step and simulation time.
func ComputeDiagnostics(store particle.Store, stepIndex int32, simTime float64) Diagnostics {
	n := len(store)
	mass := make([]float64, n)
	ke := make([]float64, n)
	ie := make([]float64, n)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)
	dens := make([]float64, n)
	pres := make([]float64, n)

	for i, p := range store {
		mass[i] = p.Mass
		ke[i] = 0.5 * p.Mass * p.Vel.Norm2()
		ie[i] = p.Mass * p.U
		px[i] = p.Mass * p.Vel.X
		py[i] = p.Mass * p.Vel.Y
		pz[i] = p.Mass * p.Vel.Z
		dens[i] = p.Dens
		pres[i] = p.Pres
	}

	// floats.Sum over per-particle contributions keeps this associativity-
	// stable regardless of how the slices above were populated, rather than
	// accumulating order-dependent partial sums in the loop itself.
	totalKE := floats.Sum(ke)
	totalIE := floats.Sum(ie)

	densMean, densP10, densP50, densP90 := ComputeDistribution(dens)
	presMean, _, _, _ := ComputeDistribution(pres)

	return Diagnostics{
		StepIndex:      stepIndex,
		SimTimeSec:     simTime,
		TotalMass:      floats.Sum(mass),
		MomentumX:      floats.Sum(px),
		MomentumY:      floats.Sum(py),
		MomentumZ:      floats.Sum(pz),
		KineticEnergy:  totalKE,
		InternalEnergy: totalIE,
		TotalEnergy:    totalKE + totalIE,
		DensityMean:    densMean,
		DensityP10:     densP10,
		DensityP50:     densP50,
		DensityP90:     densP90,
		PressureMean:   presMean,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (d Diagnostics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", int(d.StepIndex)),
		slog.Float64("sim_time", d.SimTimeSec),
		slog.Float64("total_mass", d.TotalMass),
		slog.Float64("momentum_x", d.MomentumX),
		slog.Float64("momentum_y", d.MomentumY),
		slog.Float64("momentum_z", d.MomentumZ),
		slog.Float64("kinetic_energy", d.KineticEnergy),
		slog.Float64("internal_energy", d.InternalEnergy),
		slog.Float64("total_energy", d.TotalEnergy),
		slog.Float64("density_mean", d.DensityMean),
		slog.Float64("density_p10", d.DensityP10),
		slog.Float64("density_p50", d.DensityP50),
		slog.Float64("density_p90", d.DensityP90),
		slog.Float64("pressure_mean", d.PressureMean),
	)
}

// LogStats logs the diagnostics record using slog.
func (d Diagnostics) LogStats() {
	slog.Info("diagnostics",
		"step", d.StepIndex,
		"sim_time", d.SimTimeSec,
		"total_mass", d.TotalMass,
		"total_energy", d.TotalEnergy,
		"kinetic_energy", d.KineticEnergy,
		"internal_energy", d.InternalEnergy,
		"density_mean", d.DensityMean,
	)
}
