package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/episode"
)

var checkFlags struct {
	file string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify a recorded scenario against the placement rules",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFlags.file, "file", "f", "", "Episode file (required)")
	_ = checkCmd.MarkFlagRequired("file")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	rec, err := episode.Load(checkFlags.file)
	if err != nil {
		return err
	}
	s, err := rec.Scenario(config.Cfg())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	violations := s.Violations()
	for _, v := range violations {
		fmt.Fprintln(out, v)
	}
	if len(violations) > 0 {
		return fmt.Errorf("%s: %d violations", checkFlags.file, len(violations))
	}
	fmt.Fprintf(out, "%s: ok (%d cores, %d obstacles)\n", checkFlags.file, s.NumCores(), len(s.Obstacles()))
	return nil
}
