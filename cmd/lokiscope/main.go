// Package main is the lokiscope entrypoint: analyze Loki error logs,
// render markdown reports, and optionally serve the analysis over HTTP.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	verbose bool
)

func main() {
	initLogging(false)

	root := &cobra.Command{
		Use:   "lokiscope",
		Short: "Loki error log analyzer",
		Long: `Lokiscope fetches error logs from Loki (or reads a saved batch),
classifies them into configurable categories, flags critical failure
patterns, aggregates per-service health metrics, and renders a markdown
report with severity tiers and business-impact assessments.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(verbose)
		},
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(NewAnalyzeCmd())
	root.AddCommand(NewServeCmd())
	root.AddCommand(NewVersionCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
