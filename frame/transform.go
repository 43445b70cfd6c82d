// Package frame converts between the fixed world frame and the robot's body frame.
package frame

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Transform is the pose of a body frame in the world: a rotation by the heading
// and a translation to the body origin.
type Transform struct {
	theta float64
	rot   *mat.Dense // body -> world
	t     r2.Vec     // body origin in world coordinates
}

// New returns the transform for a body at pos with heading theta (radians).
func New(theta float64, pos r2.Vec) Transform {
	sin, cos := math.Sincos(theta)
	return Transform{
		theta: theta,
		rot:   mat.NewDense(2, 2, []float64{cos, -sin, sin, cos}),
		t:     pos,
	}
}

// Heading returns the body heading in radians.
func (tr Transform) Heading() float64 { return tr.theta }

// Translation returns the body origin in world coordinates.
func (tr Transform) Translation() r2.Vec { return tr.t }

// Rotation returns a copy of the body-to-world rotation matrix.
func (tr Transform) Rotation() *mat.Dense { return mat.DenseCopyOf(tr.rot) }

// WorldVectorToBody rotates a world-frame vector into the body frame.
// Velocities use this form: no translation is applied.
func (tr Transform) WorldVectorToBody(v r2.Vec) r2.Vec {
	return apply(tr.rot.T(), v)
}

// WorldPointToBody maps a world-frame point into the body frame.
func (tr Transform) WorldPointToBody(p r2.Vec) r2.Vec {
	return tr.WorldVectorToBody(r2.Sub(p, tr.t))
}

// BodyVectorToWorld is the inverse of WorldVectorToBody.
func (tr Transform) BodyVectorToWorld(v r2.Vec) r2.Vec {
	return apply(tr.rot, v)
}

// BodyPointToWorld is the inverse of WorldPointToBody.
func (tr Transform) BodyPointToWorld(p r2.Vec) r2.Vec {
	return r2.Add(tr.BodyVectorToWorld(p), tr.t)
}

func apply(m mat.Matrix, v r2.Vec) r2.Vec {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(2, []float64{v.X, v.Y}))
	return r2.Vec{X: out.AtVec(0), Y: out.AtVec(1)}
}
