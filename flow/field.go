// Package flow evaluates the current induced by a scenario's vortex cores.
package flow

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/scenario"
)

// Field is the superposed velocity field of one scenario.
type Field struct {
	s *scenario.Scenario
	r float64
}

// New wraps a scenario. The field holds no state of its own.
func New(s *scenario.Scenario) *Field {
	return &Field{s: s, r: s.Config().CoreRadius}
}

// Scenario returns the scenario the field is evaluated over.
func (f *Field) Scenario() *scenario.Scenario { return f.s }

// VelocityAt returns the current at p.
//
// Cores are visited nearest first. Each contributes its tangential speed along
// the radial direction rotated by -90 degrees (clockwise) or +90 degrees
// (counter-clockwise), where radial points from p to the core centre.
func (f *Field) VelocityAt(p r2.Vec) r2.Vec {
	var v r2.Vec
	for _, n := range f.s.RankedCores(p) {
		// Speed is zero at a core centre and the direction undefined.
		if n.Dist == 0 {
			continue
		}
		c := f.s.Core(n.Index)
		radial := r2.Scale(1/n.Dist, r2.Sub(c.Pos(), p))
		v = r2.Add(v, r2.Scale(Speed(c.Gamma, n.Dist, f.r), tangent(radial, c.Clockwise)))
	}
	return v
}

// tangent rotates a radial unit vector into the flow direction.
func tangent(radial r2.Vec, clockwise bool) r2.Vec {
	if clockwise {
		// [[0, -1], [1, 0]]
		return r2.Vec{X: -radial.Y, Y: radial.X}
	}
	// [[0, 1], [-1, 0]]
	return r2.Vec{X: radial.Y, Y: -radial.X}
}

// Speed is the tangential speed at distance d from a core of strength gamma
// and radius r: solid-body rotation inside the core, potential-flow decay outside.
func Speed(gamma, d, r float64) float64 {
	if d <= r {
		return gamma / (2 * math.Pi * r * r) * d
	}
	return gamma / (2 * math.Pi * d)
}

// Sample is one point of a field preview grid.
type Sample struct {
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
	U     float64 `csv:"u"`
	V     float64 `csv:"v"`
	Speed float64 `csv:"speed"`
}

// SampleGrid evaluates the field on an nx-by-ny grid spanning the domain,
// x-major. nx and ny must be at least 2.
func (f *Field) SampleGrid(nx, ny int) []Sample {
	cfg := f.s.Config()
	xs := floats.Span(make([]float64, nx), 0, cfg.Width)
	ys := floats.Span(make([]float64, ny), 0, cfg.Height)

	out := make([]Sample, 0, nx*ny)
	for _, x := range xs {
		for _, y := range ys {
			v := f.VelocityAt(r2.Vec{X: x, Y: y})
			out = append(out, Sample{X: x, Y: y, U: v.X, V: v.Y, Speed: r2.Norm(v)})
		}
	}
	return out
}
