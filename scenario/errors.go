package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrPlacementInfeasible means the sampler exhausted its retry budget.
	ErrPlacementInfeasible = errors.New("placement infeasible")

	// ErrInvalidConfiguration means generation parameters were rejected before sampling.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// PlacementError reports how far the sampler got before giving up.
type PlacementError struct {
	Kind      string // "cores" or "obstacles"
	Placed    int
	Requested int
	Attempts  int
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("placing %s: %d of %d placed after %d attempts: %v",
		e.Kind, e.Placed, e.Requested, e.Attempts, ErrPlacementInfeasible)
}

func (e *PlacementError) Unwrap() error { return ErrPlacementInfeasible }
