package robot

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/scenario"
)

// Reflection is the end point of one sonar beam in world coordinates.
// Hit is false when the beam reached its maximum range without a return.
type Reflection struct {
	X, Y float64
	Hit  bool
}

// Pos returns the reflection point.
func (r Reflection) Pos() r2.Vec { return r2.Vec{X: r.X, Y: r.Y} }

// Sonar casts a fan of beams symmetric about the robot heading.
type Sonar struct {
	Range      float64
	Angle      float64 // Total field of view
	NumBeams   int
	BeamAngles []float64 // Relative to heading

	Reflections []Reflection // Result of the last Reflect call
}

// NewSonar spreads numBeams beams evenly over [-angle/2, angle/2].
// A single beam looks straight ahead.
func NewSonar(rangeMax, angle float64, numBeams int) *Sonar {
	s := &Sonar{Range: rangeMax, Angle: angle, NumBeams: numBeams}
	if numBeams == 1 {
		s.BeamAngles = []float64{0}
	} else {
		s.BeamAngles = floats.Span(make([]float64, numBeams), -angle/2, angle/2)
	}
	return s
}

// Reflect casts every beam from pos at heading theta against the scenario's
// obstacles and stores one reflection per beam.
func (s *Sonar) Reflect(pos r2.Vec, theta float64, sc *scenario.Scenario) []Reflection {
	candidates := sc.ObstaclesNear(pos, s.Range)

	refl := make([]Reflection, 0, len(s.BeamAngles))
	for _, beam := range s.BeamAngles {
		sin, cos := math.Sincos(theta + beam)
		dir := r2.Vec{X: cos, Y: sin}

		best := s.Range
		hit := false
		for _, i := range candidates {
			o := sc.Obstacle(i)
			if t, ok := rayCircle(pos, dir, o.Pos(), o.R); ok && t <= best {
				best = t
				hit = true
			}
		}
		end := r2.Add(pos, r2.Scale(best, dir))
		refl = append(refl, Reflection{X: end.X, Y: end.Y, Hit: hit})
	}
	s.Reflections = refl
	return refl
}

// rayCircle returns the nearest non-negative ray parameter at which the unit
// ray origin+t*dir meets the circle, if any. An origin inside the circle hits at 0.
func rayCircle(origin, dir, center r2.Vec, radius float64) (float64, bool) {
	oc := r2.Sub(origin, center)
	b := r2.Dot(oc, dir)
	c := r2.Dot(oc, oc) - radius*radius
	if c <= 0 {
		return 0, true
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		return 0, false
	}
	return t, true
}
