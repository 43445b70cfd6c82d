package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/currents/sim"
)

// EpisodeStats summarizes one finished (or truncated) episode.
type EpisodeStats struct {
	Episode int    `csv:"episode"`
	Seed    uint64 `csv:"seed"`
	Steps   int    `csv:"steps"`
	Reason  string `csv:"reason"`

	Return           float64 `csv:"return"`
	DiscountedReturn float64 `csv:"discounted_return"`

	// Path length over ground and net displacement toward the goal
	PathLength   float64 `csv:"path_length"`
	GoalDistance float64 `csv:"goal_distance"` // At the last step

	// Current speed felt by the robot
	CurrentMean float64 `csv:"current_mean"`
	CurrentP10  float64 `csv:"current_p10"`
	CurrentP50  float64 `csv:"current_p50"`
	CurrentP90  float64 `csv:"current_p90"`

	Cores     int `csv:"cores"`
	Obstacles int `csv:"obstacles"`
}

// speedSummary returns the mean and the 10th, 50th and 90th percentiles of
// speeds, all zero when there are none. Percentiles interpolate the empirical
// CDF linearly (stat.LinInterp). speeds is not modified.
func speedSummary(speeds []float64) (mean, p10, p50, p90 float64) {
	if len(speeds) == 0 {
		return 0, 0, 0, 0
	}
	sorted := slices.Clone(speeds)
	slices.Sort(sorted)
	q := func(p float64) float64 { return stat.Quantile(p, stat.LinInterp, sorted, nil) }
	return stat.Mean(speeds, nil), q(0.1), q(0.5), q(0.9)
}

// Summarizer accumulates step results into EpisodeStats.
type Summarizer struct {
	discount float64
	goal     r2.Vec

	stats    EpisodeStats
	weight   float64
	last     r2.Vec
	currents []float64
}

// NewSummarizer starts a summary for the episode running in env.
func NewSummarizer(episode int, env *sim.Env) *Summarizer {
	s := env.Scenario()
	start := s.Config().Start
	return &Summarizer{
		discount: env.Config().Episode.Discount,
		goal:     s.Config().Goal,
		stats: EpisodeStats{
			Episode:      episode,
			Seed:         env.Seed(),
			Cores:        s.NumCores(),
			Obstacles:    len(s.Obstacles()),
			GoalDistance: r2.Norm(r2.Sub(s.Config().Goal, start)),
		},
		weight: 1,
		last:   start,
	}
}

// Record adds one step.
func (s *Summarizer) Record(res sim.StepResult) {
	pos := res.State.Pos()
	s.stats.Steps++
	s.stats.Return += res.Reward
	s.stats.DiscountedReturn += s.weight * res.Reward
	s.weight *= s.discount
	s.stats.PathLength += r2.Norm(r2.Sub(pos, s.last))
	s.stats.GoalDistance = r2.Norm(r2.Sub(s.goal, pos))
	s.last = pos
	s.currents = append(s.currents, math.Hypot(res.Current.X, res.Current.Y))
	if res.Done {
		s.stats.Reason = res.Reason
	}
}

// Stats returns the summary so far.
func (s *Summarizer) Stats() EpisodeStats {
	out := s.stats
	out.CurrentMean, out.CurrentP10, out.CurrentP50, out.CurrentP90 = speedSummary(s.currents)
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s EpisodeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("episode", s.Episode),
		slog.Uint64("seed", s.Seed),
		slog.Int("steps", s.Steps),
		slog.String("reason", s.Reason),
		slog.Float64("return", s.Return),
		slog.Float64("discounted_return", s.DiscountedReturn),
		slog.Float64("path_length", s.PathLength),
		slog.Float64("goal_distance", s.GoalDistance),
		slog.Float64("current_mean", s.CurrentMean),
		slog.Float64("current_p50", s.CurrentP50),
		slog.Float64("current_p90", s.CurrentP90),
		slog.Int("cores", s.Cores),
		slog.Int("obstacles", s.Obstacles),
	)
}
