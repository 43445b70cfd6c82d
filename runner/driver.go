package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pthm-cable/currents/observation"
	"github.com/pthm-cable/currents/rng"
	"github.com/pthm-cable/currents/robot"
)

// Driver supplies action indices to the runner. Drivers stand in for an
// external agent; they do not plan.
type Driver interface {
	Name() string
	Act(obs observation.Observation, actions []robot.Action) int
}

// RandomDriver picks uniformly among actions.
type RandomDriver struct {
	src *rng.Source
}

// NewRandomDriver creates a random driver with its own stream.
func NewRandomDriver(seed uint64) *RandomDriver {
	return &RandomDriver{src: rng.New(seed)}
}

// Name implements Driver.
func (d *RandomDriver) Name() string { return "random" }

// Act implements Driver.
func (d *RandomDriver) Act(_ observation.Observation, actions []robot.Action) int {
	i := int(d.src.Float64() * float64(len(actions)))
	return min(i, len(actions)-1)
}

// Scripted replays a fixed action list, then repeats Fallback.
type Scripted struct {
	Actions  []int
	Fallback int
	next     int
}

// Name implements Driver.
func (d *Scripted) Name() string { return "scripted" }

// Act implements Driver.
func (d *Scripted) Act(observation.Observation, []robot.Action) int {
	if d.next < len(d.Actions) {
		a := d.Actions[d.next]
		d.next++
		return a
	}
	return d.Fallback
}

// Reset rewinds the script for a new episode.
func (d *Scripted) Reset() { d.next = 0 }

// ParseActions parses a comma-separated list of action indices.
func ParseActions(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		a, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid action %q: %w", part, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// NewDriver builds a driver by name: "random" or "scripted".
func NewDriver(name string, seed uint64, script []int, fallback int) (Driver, error) {
	switch name {
	case "random":
		return NewRandomDriver(seed), nil
	case "scripted", "":
		return &Scripted{Actions: script, Fallback: fallback}, nil
	}
	return nil, fmt.Errorf("unknown driver %q", name)
}
