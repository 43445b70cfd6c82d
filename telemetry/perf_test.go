package telemetry

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/currents/sim"
)

func metrics(evals, drifters int, field, robot, drift, sonar, compose time.Duration) sim.StepMetrics {
	m := sim.StepMetrics{FieldEvals: evals, Drifters: drifters}
	m.Phases[sim.PhaseField] = field
	m.Phases[sim.PhaseRobot] = robot
	m.Phases[sim.PhaseDrifters] = drift
	m.Phases[sim.PhaseSonar] = sonar
	m.Phases[sim.PhaseCompose] = compose
	return m
}

func TestEngineProfileAverages(t *testing.T) {
	var p EngineProfile
	us := time.Microsecond
	p.Record(metrics(11, 0, 40*us, 10*us, 0, 40*us, 10*us))
	p.Record(metrics(31, 2, 40*us, 10*us, 100*us, 40*us, 10*us))

	s := p.Stats()
	if s.Steps != 2 {
		t.Errorf("Steps = %d, want 2", s.Steps)
	}
	if s.FieldEvalsPerStep != 21 {
		t.Errorf("FieldEvalsPerStep = %v, want 21", s.FieldEvalsPerStep)
	}
	if s.DriftersPerStep != 1 {
		t.Errorf("DriftersPerStep = %v, want 1", s.DriftersPerStep)
	}
	if s.MinStep != 100*us || s.MaxStep != 200*us || s.AvgStep != 150*us {
		t.Errorf("step min/avg/max = %v/%v/%v, want 100µs/150µs/200µs", s.MinStep, s.AvgStep, s.MaxStep)
	}
	// 42 evaluations over 300µs of engine time.
	if want := 42 / 300e-6; math.Abs(s.EvalsPerSecond-want) > 1e-6 {
		t.Errorf("EvalsPerSecond = %v, want %v", s.EvalsPerSecond, want)
	}
	if s.PhaseAvg[sim.PhaseDrifters] != 50*us {
		t.Errorf("drifters avg = %v, want 50µs", s.PhaseAvg[sim.PhaseDrifters])
	}
}

func TestEngineProfilePhaseShares(t *testing.T) {
	var p EngineProfile
	ms := time.Millisecond
	for i := 0; i < 4; i++ {
		p.Record(metrics(10, 0, 5*ms, 1*ms, 0, 3*ms, 1*ms))
	}

	s := p.Stats()
	want := map[sim.Phase]float64{
		sim.PhaseField:    50,
		sim.PhaseRobot:    10,
		sim.PhaseDrifters: 0,
		sim.PhaseSonar:    30,
		sim.PhaseCompose:  10,
	}
	var sum float64
	for phase, pct := range want {
		if math.Abs(s.PhasePct[phase]-pct) > 1e-9 {
			t.Errorf("%s share = %v, want %v", phase, s.PhasePct[phase], pct)
		}
		sum += s.PhasePct[phase]
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Errorf("phase shares sum to %v, want 100", sum)
	}

	row := s.ToCSV(3)
	if row.Episode != 3 || row.Steps != 4 || math.Abs(row.FieldPct-50) > 1e-9 || math.Abs(row.SonarPct-30) > 1e-9 {
		t.Errorf("ToCSV = %+v", row)
	}
}

func TestEngineProfileReset(t *testing.T) {
	var p EngineProfile
	p.Record(metrics(5, 1, time.Millisecond, 0, 0, 0, 0))
	p.Reset()
	p.Record(metrics(7, 0, 2*time.Millisecond, 0, 0, 0, 0))

	s := p.Stats()
	if s.Steps != 1 || s.FieldEvalsPerStep != 7 || s.MinStep != 2*time.Millisecond {
		t.Errorf("after Reset: %+v, want only the second step", s)
	}
}

func TestEngineProfileEmpty(t *testing.T) {
	var p EngineProfile
	s := p.Stats()
	if s.Steps != 0 || s.AvgStep != 0 || s.EvalsPerSecond != 0 {
		t.Errorf("empty profile stats = %+v, want zero", s)
	}

	// Steps too fast for the clock still count evaluations without dividing by zero.
	p.Record(sim.StepMetrics{FieldEvals: 11})
	s = p.Stats()
	if s.FieldEvalsPerStep != 11 || s.EvalsPerSecond != 0 || s.PhasePct[sim.PhaseField] != 0 {
		t.Errorf("zero-duration step stats = %+v", s)
	}
}

func TestPerfStatsLogValue(t *testing.T) {
	var p EngineProfile
	p.Record(metrics(11, 0, 9*time.Millisecond, 0, 0, time.Millisecond, 0))

	v := p.Stats().LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind = %v, want group", v.Kind())
	}
	attrs := map[string]bool{}
	for _, a := range v.Group() {
		attrs[a.Key] = true
	}
	for _, key := range []string{"steps", "field_evals_per_step", "field_pct", "sonar_pct"} {
		if !attrs[key] {
			t.Errorf("LogValue missing %q", key)
		}
	}
	// Idle phases are left out.
	if attrs["robot_pct"] || attrs["drifters_pct"] {
		t.Errorf("LogValue includes idle phases: %v", attrs)
	}
}
