package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/currents/sim"
)

// EngineProfile accumulates the engine metrics reported by sim.Env.Step over
// one episode. The zero value is ready to use.
type EngineProfile struct {
	steps      int
	fieldEvals int
	drifters   int
	phases     [sim.NumPhases]time.Duration
	minStep    time.Duration
	maxStep    time.Duration
}

// Record adds one step's metrics.
func (p *EngineProfile) Record(m sim.StepMetrics) {
	d := m.Total()
	if p.steps == 0 || d < p.minStep {
		p.minStep = d
	}
	if d > p.maxStep {
		p.maxStep = d
	}
	p.steps++
	p.fieldEvals += m.FieldEvals
	p.drifters += m.Drifters
	for i, pd := range m.Phases {
		p.phases[i] += pd
	}
}

// Reset clears the profile for a new episode.
func (p *EngineProfile) Reset() {
	*p = EngineProfile{}
}

// PerfStats summarises an EngineProfile.
type PerfStats struct {
	Steps int

	FieldEvalsPerStep float64
	DriftersPerStep   float64
	EvalsPerSecond    float64 // Field evaluations per second of engine time

	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration

	PhaseAvg [sim.NumPhases]time.Duration
	PhasePct [sim.NumPhases]float64 // Share of engine time
}

// Stats computes per-step averages over everything recorded since Reset.
func (p *EngineProfile) Stats() PerfStats {
	if p.steps == 0 {
		return PerfStats{}
	}
	n := float64(p.steps)
	var total time.Duration
	for _, d := range p.phases {
		total += d
	}

	s := PerfStats{
		Steps:             p.steps,
		FieldEvalsPerStep: float64(p.fieldEvals) / n,
		DriftersPerStep:   float64(p.drifters) / n,
		AvgStep:           total / time.Duration(p.steps),
		MinStep:           p.minStep,
		MaxStep:           p.maxStep,
	}
	if total > 0 {
		s.EvalsPerSecond = float64(p.fieldEvals) / total.Seconds()
	}
	for i, d := range p.phases {
		s.PhaseAvg[i] = d / time.Duration(p.steps)
		if total > 0 {
			s.PhasePct[i] = float64(d) / float64(total) * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("steps", s.Steps),
		slog.Float64("field_evals_per_step", s.FieldEvalsPerStep),
		slog.Float64("evals_per_sec", s.EvalsPerSecond),
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
	}
	for p := sim.PhaseField; p < sim.NumPhases; p++ {
		if pct := s.PhasePct[p]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(p.String()+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of engine stats.
type PerfStatsCSV struct {
	Episode           int     `csv:"episode"`
	Steps             int     `csv:"steps"`
	FieldEvalsPerStep float64 `csv:"field_evals_per_step"`
	DriftersPerStep   float64 `csv:"drifters_per_step"`
	EvalsPerSec       float64 `csv:"evals_per_sec"`
	AvgStepUS         int64   `csv:"avg_step_us"`
	MinStepUS         int64   `csv:"min_step_us"`
	MaxStepUS         int64   `csv:"max_step_us"`
	FieldPct          float64 `csv:"field_pct"`
	RobotPct          float64 `csv:"robot_pct"`
	DriftersPct       float64 `csv:"drifters_pct"`
	SonarPct          float64 `csv:"sonar_pct"`
	ComposePct        float64 `csv:"compose_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(episode int) PerfStatsCSV {
	return PerfStatsCSV{
		Episode:           episode,
		Steps:             s.Steps,
		FieldEvalsPerStep: s.FieldEvalsPerStep,
		DriftersPerStep:   s.DriftersPerStep,
		EvalsPerSec:       s.EvalsPerSecond,
		AvgStepUS:         s.AvgStep.Microseconds(),
		MinStepUS:         s.MinStep.Microseconds(),
		MaxStepUS:         s.MaxStep.Microseconds(),
		FieldPct:          s.PhasePct[sim.PhaseField],
		RobotPct:          s.PhasePct[sim.PhaseRobot],
		DriftersPct:       s.PhasePct[sim.PhaseDrifters],
		SonarPct:          s.PhasePct[sim.PhaseSonar],
		ComposePct:        s.PhasePct[sim.PhaseCompose],
	}
}
