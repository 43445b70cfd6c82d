// Package observation assembles what the robot perceives each step, expressed
// in its body frame.
package observation

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/frame"
	"github.com/pthm-cable/currents/robot"
)

// SonarPoint is a sonar reflection in the body frame.
type SonarPoint struct {
	X, Y float64
	Hit  bool // false when the beam ended at maximum range
}

// Observation is the per-step perception tuple.
type Observation struct {
	Velocity r2.Vec // Velocity over ground, body frame
	Sonar    []SonarPoint
	Goal     r2.Vec // Goal position, body frame
}

// Compose inverts body, the robot's body-to-world transform, to express its
// ground velocity, the sonar reflections and the goal in the body frame.
// Hit flags pass through unchanged.
func Compose(body frame.Transform, velocity r2.Vec, reflections []robot.Reflection, goal r2.Vec) Observation {
	obs := Observation{
		Velocity: body.WorldVectorToBody(velocity),
		Sonar:    make([]SonarPoint, len(reflections)),
		Goal:     body.WorldPointToBody(goal),
	}
	for i, r := range reflections {
		p := body.WorldPointToBody(r.Pos())
		obs.Sonar[i] = SonarPoint{X: p.X, Y: p.Y, Hit: r.Hit}
	}
	return obs
}

// Vector flattens the observation as goal, velocity, then one (x, y) pair per
// beam. Its length is 4 + 2*len(Sonar).
func (o Observation) Vector() []float64 {
	out := make([]float64, 0, 4+2*len(o.Sonar))
	out = append(out, o.Goal.X, o.Goal.Y, o.Velocity.X, o.Velocity.Y)
	for _, p := range o.Sonar {
		out = append(out, p.X, p.Y)
	}
	return out
}
