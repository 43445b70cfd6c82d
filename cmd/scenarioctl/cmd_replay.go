package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/episode"
	"github.com/pthm-cable/currents/telemetry"
)

var replayFlags struct {
	file      string
	outputDir string
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run a recorded episode's actions and report the outcome",
	RunE:  runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.StringVarP(&replayFlags.file, "file", "f", "", "Episode file (required)")
	f.StringVar(&replayFlags.outputDir, "output-dir", "", "Write the replayed trajectory here")

	_ = replayCmd.MarkFlagRequired("file")
}

func runReplay(cmd *cobra.Command, _ []string) error {
	rec, err := episode.Load(replayFlags.file)
	if err != nil {
		return err
	}
	env, results, err := episode.Replay(rec, config.Cfg(), newLogger())
	if err != nil {
		return err
	}

	om, err := telemetry.NewOutputManager(replayFlags.outputDir)
	if err != nil {
		return err
	}
	defer om.Close()

	summary := telemetry.NewSummarizer(0, env)
	history := env.ActionHistory()
	for i, res := range results {
		summary.Record(res)
		if err := om.WriteStep(telemetry.NewTrajectoryRecord(0, i+1, history[i], res)); err != nil {
			return err
		}
	}
	stats := summary.Stats()
	if err := om.WriteSummary(stats); err != nil {
		return err
	}

	reason := stats.Reason
	if reason == "" {
		reason = "unfinished"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d/%d steps, return %.2f, %s\n",
		len(results), len(rec.Robot.ActionHistory), stats.Return, reason)
	return om.Close()
}
