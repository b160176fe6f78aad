package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lokiscope/lokiscope/internal/config"
	"github.com/lokiscope/lokiscope/internal/runner"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	var (
		env          string
		analysisPath string
		inputFile    string
		outputFile   string
		days         int
		limit        int
		level        string
		stream       string
		startTime    string
		endTime      string
		archive      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze error logs and generate a markdown report",
		Long: `Fetch error logs from Loki for the configured window (or load a
saved NDJSON/JSON batch with --input-file), run the classification and
aggregation pipeline, and write a markdown report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.ApplyEnvironment(env, time.Now()); err != nil {
				return err
			}

			// Flag overrides on top of env + profile defaults.
			if days > 0 {
				cfg.Query.DaysBack = days
				cfg.Query.Start, cfg.Query.End = time.Time{}, time.Time{}
			}
			if limit > 0 {
				cfg.Query.Limit = limit
			}
			if level != "" {
				cfg.Query.Level = level
			}
			if stream != "" {
				cfg.Query.Stream = stream
			}
			if startTime != "" || endTime != "" {
				start, err := parseTimeFlag(startTime, "--start-time")
				if err != nil {
					return err
				}
				end, err := parseTimeFlag(endTime, "--end-time")
				if err != nil {
					return err
				}
				if !end.After(start) {
					return fmt.Errorf("--end-time must be after --start-time")
				}
				cfg.Query.Start, cfg.Query.End = start, end
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			d, err := buildDeps(ctx, cfg, analysisPath)
			if err != nil {
				return err
			}
			defer d.Close()

			out, err := runAnalysis(ctx, d.Runner, inputFile, archive)
			if err != nil {
				return err
			}

			if outputFile == "" {
				outputFile = fmt.Sprintf("%s_error_analysis_report.md", env)
			}
			if err := os.WriteFile(outputFile, []byte(out.Markdown), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			slog.Info("analysis complete",
				"severity", out.Summary.Tier,
				"total_errors", out.Result.TotalErrors,
				"critical_errors", out.Result.CriticalErrorTotal,
				"services", out.Summary.ServicesAffected,
				"report", outputFile,
			)
			if out.Report != nil {
				slog.Info("report archived", "id", out.Report.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&env, "env", "dev", "Environment profile (dev or prod)")
	cmd.Flags().StringVar(&analysisPath, "config", "", "Path to the analysis YAML config (built-in defaults when omitted)")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "Analyze a saved batch (NDJSON or JSON array) instead of querying Loki")
	cmd.Flags().StringVar(&outputFile, "output", "", "Report output path (default: <env>_error_analysis_report.md)")
	cmd.Flags().IntVar(&days, "days", 0, "Override the lookback window in days")
	cmd.Flags().IntVar(&limit, "limit", 0, "Override the Loki query limit")
	cmd.Flags().StringVar(&level, "level", "", "Override the level regex pattern")
	cmd.Flags().StringVar(&stream, "stream", "", "Override the stream label selector")
	cmd.Flags().StringVar(&startTime, "start-time", "", "Explicit window start (RFC3339)")
	cmd.Flags().StringVar(&endTime, "end-time", "", "Explicit window end (RFC3339)")
	cmd.Flags().BoolVar(&archive, "archive", false, "Persist the report to the archive database (requires DATABASE_URL)")

	return cmd
}

func runAnalysis(ctx context.Context, run *runner.Runner, inputFile string, archive bool) (*runner.Output, error) {
	if inputFile == "" {
		return run.FetchAndAnalyze(ctx, archive)
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	slog.Info("loading batch from file", "path", inputFile)
	return run.AnalyzeReader(ctx, f, archive)
}

func parseTimeFlag(value, flag string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required when the other bound is set", flag)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339 (e.g. 2025-03-14T19:00:00Z): %w", flag, err)
	}
	return t, nil
}
