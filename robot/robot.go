// Package robot is the reference kinematic and sensing collaborator driven by
// the episode runner: a unicycle pushed around by the ambient current, carrying
// a forward-looking sonar.
package robot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/frame"
)

// Params holds the robot's physical and control parameters.
type Params struct {
	DT        float64
	N         int // Integration sub-steps per action
	Length    float64
	Width     float64
	R         float64 // Collision radius
	MaxSpeed  float64
	A         []float64 // Linear accelerations
	W         []float64 // Angular velocities
	InitTheta float64
	InitSpeed float64
}

// Action is one (linear acceleration, angular velocity) command.
type Action struct {
	A, W float64
}

// State is the robot pose and motion as seen by observers.
type State struct {
	X, Y     float64
	Theta    float64
	Speed    float64 // Forward speed through the water
	Velocity r2.Vec  // Velocity over ground: steering plus current
}

// Pos returns the robot position.
func (s State) Pos() r2.Vec { return r2.Vec{X: s.X, Y: s.Y} }

// Robot integrates the unicycle model.
type Robot struct {
	Params
	Sonar *Sonar

	actions []Action
	state   State
}

// New creates a robot. Call Reset before stepping.
func New(p Params, sonar *Sonar) *Robot {
	r := &Robot{Params: p, Sonar: sonar}
	r.actions = make([]Action, 0, len(p.A)*len(p.W))
	for _, a := range p.A {
		for _, w := range p.W {
			r.actions = append(r.actions, Action{A: a, W: w})
		}
	}
	return r
}

// Actions returns the discrete action set, acceleration-major.
func (r *Robot) Actions() []Action {
	return append([]Action(nil), r.actions...)
}

// NumActions returns the size of the action set.
func (r *Robot) NumActions() int { return len(r.actions) }

// Reset places the robot at pos with its initial heading and speed.
func (r *Robot) Reset(pos r2.Vec, current r2.Vec) {
	r.state = State{X: pos.X, Y: pos.Y, Theta: r.InitTheta, Speed: r.InitSpeed}
	r.state.Velocity = r2.Add(r.steerVelocity(), current)
}

// State returns the current robot state.
func (r *Robot) State() State { return r.state }

// UpdateState advances one sub-step of DT under action and the ambient current.
func (r *Robot) UpdateState(action int, current r2.Vec) error {
	if action < 0 || action >= len(r.actions) {
		return fmt.Errorf("action %d out of range [0,%d)", action, len(r.actions))
	}
	cmd := r.actions[action]

	s := &r.state
	s.Velocity = r2.Add(r.steerVelocity(), current)
	s.X += s.Velocity.X * r.DT
	s.Y += s.Velocity.Y * r.DT

	s.Speed = math.Min(math.Max(s.Speed+cmd.A*r.DT, 0), r.MaxSpeed)
	s.Theta = wrapAngle(s.Theta + cmd.W*r.DT)
	return nil
}

// Transform returns the body-to-world transform of the current pose.
func (r *Robot) Transform() frame.Transform {
	return frame.New(r.state.Theta, r.state.Pos())
}

func (r *Robot) steerVelocity() r2.Vec {
	sin, cos := math.Sincos(r.state.Theta)
	return r2.Vec{X: r.state.Speed * cos, Y: r.state.Speed * sin}
}

// wrapAngle wraps an angle to [-Pi, Pi).
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
