package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/telemetry"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRunWritesOutput(t *testing.T) {
	cfg := config.Defaults()
	cfg.Episode.MaxSteps = 50
	cfg.Telemetry.Drifters = 3
	cfg.Preview.NX, cfg.Preview.NY = 10, 10
	dir := t.TempDir()

	r, err := New(cfg, NewRandomDriver(4), Options{
		Seed:         8,
		Episodes:     2,
		OutputDir:    dir,
		SaveEpisodes: true,
		SampleField:  true,
		DrifterEvery: 10,
	}, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var called int
	r.SetStatsCallback(func(telemetry.EpisodeStats) { called++ })

	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(stats) != 2 || called != 2 {
		t.Fatalf("got %d summaries and %d callbacks, want 2 each", len(stats), called)
	}
	for i, s := range stats {
		if s.Episode != i || s.Steps < 1 || s.Steps > 50 || s.Reason == "" {
			t.Errorf("episode %d summary = %+v", i, s)
		}
	}
	for _, name := range []string{
		"config.yaml", "trajectory.csv", "drifters.csv", "episodes.csv", "perf.csv",
		"field_0.csv", "field_1.csv", "episode_0.json", "episode_1.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatalf("open perf.csv: %v", err)
	}
	defer f.Close()
	var perf []telemetry.PerfStatsCSV
	if err := gocsv.UnmarshalFile(f, &perf); err != nil {
		t.Fatalf("read perf.csv: %v", err)
	}
	if len(perf) != 2 {
		t.Fatalf("perf.csv has %d rows, want 2", len(perf))
	}
	for i, row := range perf {
		if row.Episode != i || row.Steps != stats[i].Steps {
			t.Errorf("perf row %d = episode %d, %d steps; want episode %d, %d steps",
				i, row.Episode, row.Steps, i, stats[i].Steps)
		}
		// Every step evaluates the field once per sub-step plus once for the
		// reported current, and again for each live drifter.
		lo := float64(cfg.Robot.N + 1)
		hi := float64(cfg.Robot.N*(1+cfg.Telemetry.Drifters) + 1)
		if row.FieldEvalsPerStep < lo || row.FieldEvalsPerStep > hi {
			t.Errorf("episode %d field evals per step = %v, want within [%v, %v]", i, row.FieldEvalsPerStep, lo, hi)
		}
	}
}

func TestRunWithoutOutput(t *testing.T) {
	cfg := config.Defaults()
	cfg.Episode.MaxSteps = 5
	r, err := New(cfg, &Scripted{Fallback: 4}, Options{Seed: 1}, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d summaries, want 1", len(stats))
	}
	if got := r.Env().Steps(); got != stats[0].Steps {
		t.Errorf("env steps %d != summary steps %d", got, stats[0].Steps)
	}
}

func TestRunCancelled(t *testing.T) {
	r, err := New(config.Defaults(), NewRandomDriver(4), Options{Seed: 1}, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}
