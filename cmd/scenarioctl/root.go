// scenarioctl generates, previews, checks and replays vortex-field scenarios.
//
// Usage:
//
//	scenarioctl generate --seed=<n> -o <episode.json>
//	scenarioctl preview (--seed=<n> | -f <episode.json>) -o <field.csv>
//	scenarioctl check -f <episode.json>
//	scenarioctl replay -f <episode.json> [--output-dir=<dir>]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/currents/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "scenarioctl",
	Short: "Generate and inspect vortex current scenarios",
	Long:  "scenarioctl samples scenarios of vortex cores and obstacles, previews their\ncurrent field, and replays recorded episodes.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return config.Init(rootFlags.configPath)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.Version = version
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if rootFlags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
