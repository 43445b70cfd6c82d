package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/runner"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	episodes := flag.Int("episodes", 1, "Number of episodes to run")
	maxSteps := flag.Int("max-steps", 0, "Stop each episode after N steps (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, episodes and config snapshot")
	driverName := flag.String("driver", "random", "Action driver: random or scripted")
	actions := flag.String("actions", "", "Comma-separated action indices for the scripted driver")
	fallback := flag.Int("fallback-action", -1, "Action after the script runs out (-1 = coast)")
	drifters := flag.Int("drifters", -1, "Tracers released per episode (-1 = use config)")
	drifterEvery := flag.Int("drifter-every", 0, "Steps between drifter snapshots (0 = off)")
	sampleField := flag.Bool("sample-field", false, "Write each episode's current grid to the output directory")
	saveEpisodes := flag.Bool("save-episodes", true, "Persist each episode as JSON in the output directory")
	logStats := flag.Bool("log-stats", false, "Output episode and perf stats via slog")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *maxSteps > 0 {
		cfg.Episode.MaxSteps = *maxSteps
	}
	if *drifters >= 0 {
		cfg.Telemetry.Drifters = *drifters
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	script, err := runner.ParseActions(*actions)
	if err != nil {
		slog.Error("bad -actions", "error", err)
		os.Exit(2)
	}
	fb := *fallback
	if fb < 0 {
		fb = coastAction(cfg)
	}
	driver, err := runner.NewDriver(*driverName, rngSeed+1, script, fb)
	if err != nil {
		slog.Error("bad -driver", "error", err)
		os.Exit(2)
	}

	r, err := runner.New(cfg, driver, runner.Options{
		Seed:         rngSeed,
		Episodes:     *episodes,
		OutputDir:    *outputDir,
		LogStats:     *logStats,
		SaveEpisodes: *saveEpisodes,
		SampleField:  *sampleField,
		DrifterEvery: *drifterEvery,
	}, logger)
	if err != nil {
		slog.Error("failed to start run", "error", err)
		os.Exit(1)
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := r.Run(ctx)
	if err != nil {
		slog.Error("run stopped", "error", err, "completed", len(stats))
		r.Close()
		os.Exit(1)
	}
	slog.Info("run finished", "episodes", len(stats))
}

// coastAction returns the index of the zero-acceleration, zero-turn action,
// or 0 if the action set has none.
func coastAction(cfg *config.Config) int {
	i := 0
	for _, a := range cfg.Robot.A {
		for _, w := range cfg.Robot.W {
			if a == 0 && w == 0 {
				return i
			}
			i++
		}
	}
	return 0
}
