// Package telemetry writes run output: CSV tables, the config snapshot and
// persisted episodes.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/episode"
	"github.com/pthm-cable/currents/flow"
	"github.com/pthm-cable/currents/sim"
)

// csvStream appends rows to one CSV file, writing the header once.
type csvStream struct {
	name          string
	file          *os.File
	headerWritten bool
}

func openStream(dir, name string) (*csvStream, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream{name: name, file: f}, nil
}

// write appends records, which must be a slice of csv-tagged structs.
func (s *csvStream) write(records any) error {
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
		s.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.file); err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir string

	trajectory *csvStream
	drifters   *csvStream
	summary    *csvStream
	perf       *csvStream
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). All methods are no-ops on nil.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	streams := []struct {
		dst  **csvStream
		name string
	}{
		{&om.trajectory, "trajectory.csv"},
		{&om.drifters, "drifters.csv"},
		{&om.summary, "episodes.csv"},
		{&om.perf, "perf.csv"},
	}
	for _, s := range streams {
		st, err := openStream(dir, s.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*s.dst = st
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteField writes an episode's sampled current grid to field_<n>.csv.
func (om *OutputManager) WriteField(n int, samples []flow.Sample) error {
	if om == nil {
		return nil
	}
	return WriteFieldCSV(filepath.Join(om.dir, fmt.Sprintf("field_%d.csv", n)), samples)
}

// WriteFieldCSV writes a sampled current grid to path.
func WriteFieldCSV(path string, samples []flow.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating field csv: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(samples, f); err != nil {
		return fmt.Errorf("writing field csv: %w", err)
	}
	return f.Close()
}

// WriteStep appends one row to trajectory.csv.
func (om *OutputManager) WriteStep(rec TrajectoryRecord) error {
	if om == nil {
		return nil
	}
	return om.trajectory.write([]TrajectoryRecord{rec})
}

// WriteDrifters appends a drifter snapshot to drifters.csv.
func (om *OutputManager) WriteDrifters(episode, step int, states []sim.DrifterState) error {
	if om == nil || len(states) == 0 {
		return nil
	}
	records := make([]DrifterRecord, len(states))
	for i, d := range states {
		records[i] = DrifterRecord{Episode: episode, Step: step, DrifterState: d}
	}
	return om.drifters.write(records)
}

// WriteSummary appends an episode summary to episodes.csv.
func (om *OutputManager) WriteSummary(stats EpisodeStats) error {
	if om == nil {
		return nil
	}
	return om.summary.write([]EpisodeStats{stats})
}

// WritePerf appends a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, episode int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(episode)})
}

// WriteEpisode saves an episode record as episode_<n>.json.
func (om *OutputManager) WriteEpisode(n int, rec episode.Record) error {
	if om == nil {
		return nil
	}
	return episode.Save(rec, filepath.Join(om.dir, fmt.Sprintf("episode_%d.json", n)))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvStream{om.trajectory, om.drifters, om.summary, om.perf} {
		if s == nil {
			continue
		}
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
