package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/episode"
	"github.com/pthm-cable/currents/sim"
)

var generateFlags struct {
	seed  uint64
	count int
	out   string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Sample scenarios and save them as episode records",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.Uint64Var(&generateFlags.seed, "seed", 0, "RNG seed")
	f.IntVarP(&generateFlags.count, "count", "n", 1, "Successive scenarios to draw from the seed's stream")
	f.StringVarP(&generateFlags.out, "output", "o", "", "Episode file path; with --count > 1, _<i> is inserted before the extension (required)")

	_ = generateCmd.MarkFlagRequired("output")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if generateFlags.count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	env := sim.New(config.Cfg(), generateFlags.seed, newLogger())
	out := cmd.OutOrStdout()

	for i := 0; i < generateFlags.count; i++ {
		if err := env.Reset(); err != nil {
			return fmt.Errorf("scenario %d: %w", i, err)
		}
		path := numberedPath(generateFlags.out, i, generateFlags.count)
		rec, err := episode.FromEnv(env)
		if err != nil {
			return err
		}
		if err := episode.Save(rec, path); err != nil {
			return err
		}
		s := env.Scenario()
		fmt.Fprintf(out, "%s: %d cores, %d obstacles\n", path, s.NumCores(), len(s.Obstacles()))
	}
	return nil
}

// numberedPath returns path unchanged when n == 1, else inserts _<i> before the extension.
func numberedPath(path string, i, n int) string {
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", path[:len(path)-len(ext)], i, ext)
}
