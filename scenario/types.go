// Package scenario holds the vortex cores and obstacles of one generated world
// and the rejection sampler that places them.
package scenario

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Core is a point source of rotational flow.
type Core struct {
	X, Y      float64
	Clockwise bool
	Gamma     float64 // Circulation strength, Gamma = 2*pi*r*v_edge
}

// Pos returns the core centre.
func (c Core) Pos() r2.Vec { return r2.Vec{X: c.X, Y: c.Y} }

// Boundary returns the distance at which the core's induced speed drops to vRelMax.
func (c Core) Boundary(vRelMax float64) float64 {
	return c.Gamma / (2 * math.Pi * vRelMax)
}

// Obstacle is a circular obstacle.
type Obstacle struct {
	X, Y float64
	R    float64
}

// Pos returns the obstacle centre.
func (o Obstacle) Pos() r2.Vec { return r2.Vec{X: o.X, Y: o.Y} }

// Config is the immutable set of parameters a scenario is generated from.
type Config struct {
	Width, Height float64
	CoreRadius    float64    // Physical radius of every core
	VRelMax       float64    // Max opposing-current speed where same-sense cores meet
	P             float64    // Max relative speed fraction at another core's boundary
	VRange        [2]float64 // Edge speed sampling range
	ObsRRange     [2]float64 // Obstacle radius sampling range
	NumCores      int
	NumObstacles  int

	// ClearRadius keeps cores and obstacles away from Start and Goal. Zero disables it.
	ClearRadius float64
	Start, Goal r2.Vec

	// AttemptsPerEntity bounds the sampler: a call placing n entities draws at
	// most n*AttemptsPerEntity candidates.
	AttemptsPerEntity int
}

// Validate checks parameter sanity for generation. Errors wrap ErrInvalidConfiguration.
func (c Config) Validate() error {
	if err := c.ValidateGeometry(); err != nil {
		return err
	}
	switch {
	case c.NumCores < 1:
		return invalid("at least one core is required, got %d", c.NumCores)
	case c.NumObstacles < 0:
		return invalid("obstacle count must be non-negative, got %d", c.NumObstacles)
	case c.AttemptsPerEntity < 1:
		return invalid("attempts per entity must be at least 1, got %d", c.AttemptsPerEntity)
	}
	return nil
}

// ValidateGeometry checks everything except the entity counts and the sampler
// budget. Scenarios rebuilt from parts carry whatever entities they were given.
func (c Config) ValidateGeometry() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return invalid("domain must be positive, got %gx%g", c.Width, c.Height)
	case c.CoreRadius <= 0:
		return invalid("core radius must be positive, got %g", c.CoreRadius)
	case c.VRelMax <= 0:
		return invalid("v_rel_max must be positive, got %g", c.VRelMax)
	case c.P <= 0:
		return invalid("p must be positive, got %g", c.P)
	case c.VRange[0] <= 0 || c.VRange[0] > c.VRange[1]:
		return invalid("v_range must satisfy 0 < lo <= hi, got %v", c.VRange)
	case c.ObsRRange[0] <= 0 || c.ObsRRange[0] > c.ObsRRange[1]:
		return invalid("obstacle radius range must satisfy 0 < lo <= hi, got %v", c.ObsRRange)
	case c.ClearRadius < 0:
		return invalid("clear radius must be non-negative, got %g", c.ClearRadius)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
