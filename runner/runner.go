// Package runner drives episodes headlessly: a driver acting in a sim.Env,
// with telemetry written as it goes.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/episode"
	"github.com/pthm-cable/currents/sim"
	"github.com/pthm-cable/currents/telemetry"
)

// Options configures a run.
type Options struct {
	Seed         uint64
	Episodes     int
	OutputDir    string // Empty disables file output
	LogStats     bool   // Log per-episode summaries and perf
	SaveEpisodes bool   // Persist each episode as JSON in OutputDir
	SampleField  bool   // Write each episode's field grid to OutputDir
	DrifterEvery int    // Steps between drifter snapshots (0 = never)
}

// Runner owns an environment, a driver and the run's output.
type Runner struct {
	cfg    *config.Config
	opts   Options
	env    *sim.Env
	driver Driver
	logger *slog.Logger

	outputManager *telemetry.OutputManager
	profile       telemetry.EngineProfile

	// Called with each finished episode's summary when set
	statsCallback func(telemetry.EpisodeStats)
}

// New creates a runner and opens its output directory.
func New(cfg *config.Config, driver Driver, opts Options, logger *slog.Logger) (*Runner, error) {
	if opts.Episodes < 1 {
		opts.Episodes = 1
	}
	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("runner: %w", err)
	}

	return &Runner{
		cfg:           cfg,
		opts:          opts,
		env:           sim.New(cfg, opts.Seed, logger),
		driver:        driver,
		logger:        logger,
		outputManager: om,
	}, nil
}

// SetStatsCallback registers fn to receive each episode summary.
func (r *Runner) SetStatsCallback(fn func(telemetry.EpisodeStats)) {
	r.statsCallback = fn
}

// Env returns the runner's environment.
func (r *Runner) Env() *sim.Env { return r.env }

// Run plays opts.Episodes episodes, stopping early if ctx is cancelled.
func (r *Runner) Run(ctx context.Context) ([]telemetry.EpisodeStats, error) {
	r.logger.Info("starting run",
		"seed", r.opts.Seed,
		"episodes", r.opts.Episodes,
		"driver", r.driver.Name(),
		"output_dir", r.outputManager.Dir(),
	)

	all := make([]telemetry.EpisodeStats, 0, r.opts.Episodes)
	for n := 0; n < r.opts.Episodes; n++ {
		stats, err := r.runEpisode(ctx, n)
		if err != nil {
			return all, err
		}
		all = append(all, stats)
	}
	return all, nil
}

func (r *Runner) runEpisode(ctx context.Context, n int) (telemetry.EpisodeStats, error) {
	if err := r.env.Reset(); err != nil {
		return telemetry.EpisodeStats{}, fmt.Errorf("episode %d: %w", n, err)
	}
	if rp, ok := r.driver.(interface{ Reset() }); ok {
		rp.Reset()
	}
	if r.opts.SampleField {
		samples := r.env.Field().SampleGrid(r.cfg.Preview.NX, r.cfg.Preview.NY)
		if err := r.outputManager.WriteField(n, samples); err != nil {
			r.logger.Error("failed to write field", "episode", n, "error", err)
		}
	}

	summary := telemetry.NewSummarizer(n, r.env)
	r.profile.Reset()
	actions := r.env.Robot().Actions()
	obs, err := r.env.Observation()
	if err != nil {
		return telemetry.EpisodeStats{}, fmt.Errorf("episode %d: %w", n, err)
	}
	r.recordDrifters(n, 0)

	for {
		if err := ctx.Err(); err != nil {
			return summary.Stats(), err
		}

		action := r.driver.Act(obs, actions)
		res, err := r.env.Step(action)
		if err != nil {
			return summary.Stats(), fmt.Errorf("episode %d: %w", n, err)
		}
		obs = res.Observation

		summary.Record(res)
		r.profile.Record(res.Metrics)
		step := r.env.Steps()
		if err := r.outputManager.WriteStep(telemetry.NewTrajectoryRecord(n, step, action, res)); err != nil {
			r.logger.Error("failed to write step", "error", err)
		}
		if r.opts.DrifterEvery > 0 && step%r.opts.DrifterEvery == 0 {
			r.recordDrifters(n, step)
		}

		if res.Done {
			break
		}
	}

	stats := summary.Stats()
	r.flushTelemetry(n, stats)
	return stats, nil
}

func (r *Runner) recordDrifters(n, step int) {
	if r.opts.DrifterEvery <= 0 {
		return
	}
	if err := r.outputManager.WriteDrifters(n, step, r.env.Drifters()); err != nil {
		r.logger.Error("failed to write drifters", "error", err)
	}
}

// flushTelemetry reports a finished episode.
func (r *Runner) flushTelemetry(n int, stats telemetry.EpisodeStats) {
	perfStats := r.profile.Stats()

	if r.statsCallback != nil {
		r.statsCallback(stats)
	}

	if r.opts.LogStats {
		r.logger.Info("episode", "stats", stats)
		r.logger.Info("perf", "stats", perfStats)
	}

	if err := r.outputManager.WriteSummary(stats); err != nil {
		r.logger.Error("failed to write summary", "error", err)
	}
	if err := r.outputManager.WritePerf(perfStats, n); err != nil {
		r.logger.Error("failed to write perf", "error", err)
	}
	if r.opts.SaveEpisodes {
		rec, err := episode.FromEnv(r.env)
		if err == nil {
			err = r.outputManager.WriteEpisode(n, rec)
		}
		if err != nil {
			r.logger.Error("failed to write episode", "error", err)
		}
	}
}

// Close flushes and closes the run output.
func (r *Runner) Close() error {
	return r.outputManager.Close()
}
