// Package sim runs episodes: a robot crossing a generated vortex field.
package sim

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/flow"
	"github.com/pthm-cable/currents/observation"
	"github.com/pthm-cable/currents/rng"
	"github.com/pthm-cable/currents/robot"
	"github.com/pthm-cable/currents/scenario"
)

var (
	// ErrNotReset is returned when stepping before a scenario exists.
	ErrNotReset = errors.New("environment has no scenario; call Reset")

	// ErrEpisodeDone is returned when stepping a finished episode.
	ErrEpisodeDone = errors.New("episode is done")
)

// Termination reasons.
const (
	ReasonGoal        = "goal"
	ReasonCollision   = "collision"
	ReasonOutOfBounds = "out_of_bounds"
	ReasonMaxSteps    = "max_steps"
)

// drifterSalt separates the tracer release stream from the scenario stream,
// so releasing drifters never changes the next generated scenario.
const drifterSalt = 0x5bd1e995

// StepResult is the outcome of one action.
type StepResult struct {
	Observation observation.Observation
	State       robot.State
	Current     r2.Vec // Current at the robot after the step
	Reward      float64
	Done        bool
	Reason      string
	Metrics     StepMetrics
}

// Env owns the scenario, its field, the robot and the drifters of one run.
type Env struct {
	cfg    *config.Config
	logger *slog.Logger
	seed   uint64
	src    *rng.Source
	tracer *rng.Source

	scenario *scenario.Scenario
	field    *flow.Field
	robot    *robot.Robot
	drifters *DrifterSystem

	steps   int
	done    bool
	reason  string
	history []int
}

// New creates an environment. Call Reset to generate the first scenario.
func New(cfg *config.Config, seed uint64, logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.Default()
	}
	return &Env{
		cfg:      cfg,
		logger:   logger,
		seed:     seed,
		src:      rng.New(seed),
		tracer:   rng.New(seed ^ drifterSalt),
		robot:    NewRobot(cfg),
		drifters: NewDrifterSystem(),
	}
}

// NewRobot builds the reference robot described by cfg.
func NewRobot(cfg *config.Config) *robot.Robot {
	rc := cfg.Robot
	return robot.New(robot.Params{
		DT:        rc.DT,
		N:         rc.N,
		Length:    rc.Length,
		Width:     rc.Width,
		R:         rc.R,
		MaxSpeed:  rc.MaxSpeed,
		A:         rc.A,
		W:         rc.W,
		InitTheta: rc.InitTheta,
		InitSpeed: rc.InitSpeed,
	}, robot.NewSonar(cfg.Sonar.Range, cfg.Sonar.Angle, cfg.Sonar.NumBeams))
}

// Reset generates a new scenario from the environment's random stream and
// starts a new episode on it. Successive resets continue the same stream.
func (e *Env) Reset() error {
	s, err := scenario.Generate(e.cfg.Scenario(), e.src)
	if err != nil {
		e.logger.Error("scenario generation failed", "seed", e.seed, "error", err)
		return fmt.Errorf("reset: %w", err)
	}
	e.logger.Info("scenario generated", "seed", e.seed, "scenario", s)

	e.LoadScenario(s)
	for i := 0; i < e.cfg.Telemetry.Drifters; i++ {
		e.ReleaseDrifter(r2.Vec{
			X: e.tracer.Uniform(0, e.cfg.World.Width),
			Y: e.tracer.Uniform(0, e.cfg.World.Height),
		})
	}
	return nil
}

// LoadScenario starts a new episode on an existing scenario, replacing the
// current one wholesale.
func (e *Env) LoadScenario(s *scenario.Scenario) {
	e.scenario = s
	e.field = flow.New(s)
	e.drifters.Clear()

	start := s.Config().Start
	e.robot.Reset(start, e.field.VelocityAt(start))
	e.steps = 0
	e.done = false
	e.reason = ""
	e.history = nil
}

// ReleaseDrifter adds a passive tracer at p.
func (e *Env) ReleaseDrifter(p r2.Vec) {
	if e.field == nil {
		return
	}
	e.drifters.Spawn(p, e.field)
}

// Step applies action for the robot's N integration sub-steps.
func (e *Env) Step(action int) (StepResult, error) {
	if e.scenario == nil {
		return StepResult{}, ErrNotReset
	}
	if e.done {
		return StepResult{}, ErrEpisodeDone
	}

	var m StepMetrics
	w := startStopwatch(&m)
	for i := 0; i < e.robot.N; i++ {
		current := e.field.VelocityAt(e.robot.State().Pos())
		m.FieldEvals++
		w.lap(PhaseField)

		if err := e.robot.UpdateState(action, current); err != nil {
			return StepResult{}, fmt.Errorf("step %d: %w", e.steps, err)
		}
		w.lap(PhaseRobot)

		advanced, removed := e.drifters.Update(e.field, e.robot.DT)
		m.FieldEvals += advanced
		if removed > 0 {
			e.logger.Debug("drifters left domain", "step", e.steps, "removed", removed)
		}
		w.lap(PhaseDrifters)
	}
	e.steps++
	e.history = append(e.history, action)

	reward, reason := e.evaluate()
	if reason != "" {
		e.done = true
		e.reason = reason
		e.logger.Info("episode finished", "reason", reason, "steps", e.steps)
	}

	state := e.robot.State()
	w.reset()
	current := e.field.VelocityAt(state.Pos())
	m.FieldEvals++
	w.lap(PhaseField)
	obs := e.observe(&w)
	m.Drifters = e.drifters.Count()

	return StepResult{
		Observation: obs,
		State:       state,
		Current:     current,
		Reward:      reward,
		Done:        e.done,
		Reason:      reason,
		Metrics:     m,
	}, nil
}

// evaluate returns the step reward and the termination reason, if any.
func (e *Env) evaluate() (float64, string) {
	ep := e.cfg.Episode
	pos := e.robot.State().Pos()
	reward := ep.TimestepPenalty

	switch {
	case e.scenario.Collides(pos, e.robot.R):
		return reward + ep.CollisionPenalty, ReasonCollision
	case r2.Norm(r2.Sub(pos, e.scenario.Config().Goal)) <= ep.GoalDis:
		return reward + ep.GoalReward, ReasonGoal
	case !e.scenario.InBounds(pos):
		return reward, ReasonOutOfBounds
	case e.steps >= ep.MaxSteps:
		return reward, ReasonMaxSteps
	}
	return reward, ""
}

// Observation casts the sonar and composes the body-frame observation of the
// current state.
func (e *Env) Observation() (observation.Observation, error) {
	if e.scenario == nil {
		return observation.Observation{}, ErrNotReset
	}
	return e.observe(nil), nil
}

// observe charges sonar and compose time to w when it is non-nil.
func (e *Env) observe(w *stopwatch) observation.Observation {
	state := e.robot.State()
	reflections := e.robot.Sonar.Reflect(state.Pos(), state.Theta, e.scenario)
	w.lap(PhaseSonar)
	obs := observation.Compose(e.robot.Transform(), state.Velocity, reflections, e.scenario.Config().Goal)
	w.lap(PhaseCompose)
	return obs
}

// Seed returns the seed the environment was created with.
func (e *Env) Seed() uint64 { return e.seed }

// Config returns the environment configuration.
func (e *Env) Config() *config.Config { return e.cfg }

// Scenario returns the current scenario, or nil before Reset.
func (e *Env) Scenario() *scenario.Scenario { return e.scenario }

// Field returns the current velocity field, or nil before Reset.
func (e *Env) Field() *flow.Field { return e.field }

// Robot returns the robot collaborator.
func (e *Env) Robot() *robot.Robot { return e.robot }

// Steps returns the number of actions applied this episode.
func (e *Env) Steps() int { return e.steps }

// Done reports whether the episode has finished, and why.
func (e *Env) Done() (bool, string) { return e.done, e.reason }

// ActionHistory returns the actions applied this episode.
func (e *Env) ActionHistory() []int {
	return append([]int(nil), e.history...)
}

// Drifters returns a snapshot of the live tracers.
func (e *Env) Drifters() []DrifterState { return e.drifters.Snapshot() }
