package sim

import "time"

// Phase is one stage of the engine's work inside Step.
type Phase int

// Engine phases, in the order Step runs them.
const (
	PhaseField    Phase = iota // current lookup at the robot
	PhaseRobot                 // kinematic integration
	PhaseDrifters              // tracer advection, including its field lookups
	PhaseSonar                 // beam casting against obstacles
	PhaseCompose               // body-frame observation
	NumPhases
)

var phaseNames = [NumPhases]string{"field", "robot", "drifters", "sonar", "compose"}

func (p Phase) String() string {
	if p < 0 || p >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// StepMetrics is the engine's account of one Step.
type StepMetrics struct {
	FieldEvals int // VelocityAt calls, robot and tracers
	Drifters   int // live tracers after the step
	Phases     [NumPhases]time.Duration
}

// Total returns the time spent across all phases.
func (m StepMetrics) Total() time.Duration {
	var d time.Duration
	for _, p := range m.Phases {
		d += p
	}
	return d
}

// stopwatch charges elapsed time to phases of one StepMetrics.
type stopwatch struct {
	m    *StepMetrics
	last time.Time
}

func startStopwatch(m *StepMetrics) stopwatch {
	return stopwatch{m: m, last: time.Now()}
}

// lap charges the time since the previous lap to p. A nil stopwatch is a no-op.
func (w *stopwatch) lap(p Phase) {
	if w == nil {
		return
	}
	now := time.Now()
	w.m.Phases[p] += now.Sub(w.last)
	w.last = now
}

// reset discards time elapsed since the previous lap.
func (w *stopwatch) reset() {
	w.last = time.Now()
}
