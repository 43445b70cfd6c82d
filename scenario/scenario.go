package scenario

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/rng"
	"github.com/pthm-cable/currents/spatial"
)

// Scenario is one generated world. It is never mutated after construction;
// regeneration produces a new Scenario.
type Scenario struct {
	cfg       Config
	cores     []Core
	obstacles []Obstacle

	coreIndex spatial.CoreIndex
	obsIndex  *spatial.ObstacleIndex
}

// Generate places cores, then obstacles, drawing from src.
func Generate(cfg Config, src *rng.Source) (*Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cores, err := GenerateCores(cfg, src)
	if err != nil {
		return nil, err
	}
	obstacles, err := GenerateObstacles(cfg, cores, src)
	if err != nil {
		return nil, err
	}
	return assemble(cfg, cores, obstacles), nil
}

// FromParts rebuilds a scenario from previously generated entities without
// sampling. The entity slices are copied.
func FromParts(cfg Config, cores []Core, obstacles []Obstacle) (*Scenario, error) {
	if cfg.CoreRadius <= 0 || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: radius %g, domain %gx%g",
			ErrInvalidConfiguration, cfg.CoreRadius, cfg.Width, cfg.Height)
	}
	return assemble(cfg, slices.Clone(cores), slices.Clone(obstacles)), nil
}

func assemble(cfg Config, cores []Core, obstacles []Obstacle) *Scenario {
	s := &Scenario{cfg: cfg}
	s.setCores(cores)
	s.rebuildIndex()

	disks := make([]spatial.Disk, len(obstacles))
	for i, o := range obstacles {
		disks[i] = spatial.Disk{Center: o.Pos(), R: o.R}
	}
	s.obstacles = obstacles
	s.obsIndex = spatial.NewObstacleIndex(disks)
	return s
}

// setCores replaces the core sequence and leaves the index stale.
func (s *Scenario) setCores(cores []Core) {
	s.cores = cores
	s.coreIndex.Invalidate()
}

// rebuildIndex moves the core index from stale to built.
func (s *Scenario) rebuildIndex() {
	pts := make([]r2.Vec, len(s.cores))
	for i, c := range s.cores {
		pts[i] = c.Pos()
	}
	s.coreIndex.Build(pts)
}

// Config returns the parameters the scenario was built from.
func (s *Scenario) Config() Config { return s.cfg }

// Cores returns a copy of the cores in generation order.
func (s *Scenario) Cores() []Core { return slices.Clone(s.cores) }

// Obstacles returns a copy of the obstacles in generation order.
func (s *Scenario) Obstacles() []Obstacle { return slices.Clone(s.obstacles) }

// Obstacle returns obstacle i.
func (s *Scenario) Obstacle(i int) Obstacle { return s.obstacles[i] }

// NumCores returns the number of cores.
func (s *Scenario) NumCores() int { return len(s.cores) }

// Core returns core i.
func (s *Scenario) Core(i int) Core { return s.cores[i] }

// RankedCores returns every core ordered by distance to p.
func (s *Scenario) RankedCores(p r2.Vec) []spatial.Neighbor {
	return s.coreIndex.Ranked(p, len(s.cores))
}

// ObstaclesNear returns the indices of obstacles that may lie within radius of p.
func (s *Scenario) ObstaclesNear(p r2.Vec, radius float64) []int {
	return s.obsIndex.Within(p, radius)
}

// Collides reports whether a disk of radius r at p overlaps any obstacle.
func (s *Scenario) Collides(p r2.Vec, r float64) bool {
	for _, i := range s.obsIndex.Within(p, r) {
		o := s.obstacles[i]
		if r2.Norm(r2.Sub(p, o.Pos())) <= o.R+r {
			return true
		}
	}
	return false
}

// InBounds reports whether p lies in the domain rectangle.
func (s *Scenario) InBounds(p r2.Vec) bool {
	return p.X >= 0 && p.X <= s.cfg.Width && p.Y >= 0 && p.Y <= s.cfg.Height
}

// Violations lists every broken placement invariant. A generated scenario has none;
// the check exists for scenarios loaded from disk.
func (s *Scenario) Violations() []string {
	var out []string
	cfg := s.cfg
	for i, c := range s.cores {
		if !s.InBounds(c.Pos()) {
			out = append(out, fmt.Sprintf("core %d outside domain", i))
		}
		if !coreCompatible(cfg, s.cores[:i], c) {
			out = append(out, fmt.Sprintf("core %d interferes with an earlier core", i))
		}
	}
	for i, o := range s.obstacles {
		if !s.InBounds(o.Pos()) {
			out = append(out, fmt.Sprintf("obstacle %d outside domain", i))
		}
		if !obstacleCompatible(cfg, s.cores, s.obstacles[:i], o) {
			out = append(out, fmt.Sprintf("obstacle %d overlaps a core or earlier obstacle", i))
		}
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s *Scenario) LogValue() slog.Value {
	clockwise := 0
	maxGamma := 0.0
	for _, c := range s.cores {
		if c.Clockwise {
			clockwise++
		}
		maxGamma = math.Max(maxGamma, c.Gamma)
	}
	return slog.GroupValue(
		slog.Float64("width", s.cfg.Width),
		slog.Float64("height", s.cfg.Height),
		slog.Int("cores", len(s.cores)),
		slog.Int("clockwise", clockwise),
		slog.Float64("max_gamma", maxGamma),
		slog.Int("obstacles", len(s.obstacles)),
	)
}
