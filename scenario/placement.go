package scenario

import (
	"math"

	"github.com/pthm-cable/currents/rng"
)

// GenerateCores places cfg.NumCores vortex cores by rejection sampling.
// Each candidate draws, in order: x, y, rotation sense and edge speed.
// Output order is acceptance order.
func GenerateCores(cfg Config, src *rng.Source) ([]Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cores := make([]Core, 0, cfg.NumCores)
	budget := cfg.NumCores * cfg.AttemptsPerEntity
	attempts := 0
	for len(cores) < cfg.NumCores {
		if attempts == budget {
			return nil, &PlacementError{Kind: "cores", Placed: len(cores), Requested: cfg.NumCores, Attempts: attempts}
		}
		attempts++

		x := src.Uniform(0, cfg.Width)
		y := src.Uniform(0, cfg.Height)
		clockwise := src.Bernoulli(0.5)
		vEdge := src.Uniform(cfg.VRange[0], cfg.VRange[1])
		c := Core{X: x, Y: y, Clockwise: clockwise, Gamma: 2 * math.Pi * cfg.CoreRadius * vEdge}

		if cfg.clearOfEndpoints(x, y, cfg.CoreRadius) && coreCompatible(cfg, cores, c) {
			cores = append(cores, c)
		}
	}
	return cores, nil
}

// GenerateObstacles places cfg.NumObstacles obstacles clear of cores and of each other.
// Each candidate draws, in order: x, y and radius.
func GenerateObstacles(cfg Config, cores []Core, src *rng.Source) ([]Obstacle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obstacles := make([]Obstacle, 0, cfg.NumObstacles)
	budget := cfg.NumObstacles * cfg.AttemptsPerEntity
	attempts := 0
	for len(obstacles) < cfg.NumObstacles {
		if attempts == budget {
			return nil, &PlacementError{Kind: "obstacles", Placed: len(obstacles), Requested: cfg.NumObstacles, Attempts: attempts}
		}
		attempts++

		x := src.Uniform(0, cfg.Width)
		y := src.Uniform(0, cfg.Height)
		r := src.Uniform(cfg.ObsRRange[0], cfg.ObsRRange[1])
		o := Obstacle{X: x, Y: y, R: r}

		if cfg.clearOfEndpoints(x, y, r) && obstacleCompatible(cfg, cores, obstacles, o) {
			obstacles = append(obstacles, o)
		}
	}
	return obstacles, nil
}

// coreCompatible checks a candidate against every accepted core.
func coreCompatible(cfg Config, cores []Core, cj Core) bool {
	for _, ci := range cores {
		dis := math.Hypot(ci.X-cj.X, ci.Y-cj.Y)

		if ci.Clockwise == cj.Clockwise {
			// Same sense: currents run against each other where the cores meet.
			if dis < ci.Boundary(cfg.VRelMax)+cj.Boundary(cfg.VRelMax) {
				return false
			}
			continue
		}

		// Opposite sense: currents join. The stronger core's speed at the weaker
		// core's edge must stay below p times the weaker core's edge speed.
		if dis <= 2*cfg.CoreRadius {
			return false
		}
		gammaL := math.Max(ci.Gamma, cj.Gamma)
		gammaS := math.Min(ci.Gamma, cj.Gamma)
		v1 := gammaL / (2 * math.Pi * (dis - 2*cfg.CoreRadius))
		v2 := gammaS / (2 * math.Pi * cfg.CoreRadius)
		if v1 > cfg.P*v2 {
			return false
		}
	}
	return true
}

// obstacleCompatible checks a candidate against every core and accepted obstacle.
func obstacleCompatible(cfg Config, cores []Core, obstacles []Obstacle, o Obstacle) bool {
	for _, c := range cores {
		if math.Hypot(c.X-o.X, c.Y-o.Y) <= cfg.CoreRadius+o.R {
			return false
		}
	}
	for _, other := range obstacles {
		if math.Hypot(other.X-o.X, other.Y-o.Y) <= other.R+o.R {
			return false
		}
	}
	return true
}

// clearOfEndpoints reports whether a disk of radius r at (x, y) keeps
// ClearRadius away from the start and goal points.
func (c Config) clearOfEndpoints(x, y, r float64) bool {
	if c.ClearRadius <= 0 {
		return true
	}
	for _, p := range [2][2]float64{{c.Start.X, c.Start.Y}, {c.Goal.X, c.Goal.Y}} {
		if math.Hypot(x-p[0], y-p[1]) <= c.ClearRadius+r {
			return false
		}
	}
	return true
}
