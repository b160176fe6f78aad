package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lokiscope/lokiscope/internal/api"
	"github.com/lokiscope/lokiscope/internal/api/handler"
	mw "github.com/lokiscope/lokiscope/internal/api/middleware"
	"github.com/lokiscope/lokiscope/internal/config"
)

const shutdownTimeout = 30 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		env          string
		analysisPath string
		port         int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis HTTP API",
		Long: `Start the HTTP server exposing POST /api/v1/analyze for ad-hoc
batch analysis and GET /api/v1/reports for the report archive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.ApplyEnvironment(env, time.Now()); err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			return runServe(cfg, analysisPath)
		},
	}

	cmd.Flags().StringVar(&env, "env", "dev", "Environment profile (dev or prod)")
	cmd.Flags().StringVar(&analysisPath, "config", "", "Path to the analysis YAML config (built-in defaults when omitted)")
	cmd.Flags().IntVar(&port, "port", 0, "Override the listen port")

	return cmd
}

func runServe(cfg *config.Config, analysisPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, analysisPath)
	if err != nil {
		return err
	}
	defer d.Close()
	run := d.Runner

	deps := api.Dependencies{
		Auth:           mw.NewAuth(cfg.Auth.TokenHash),
		RateLimit:      mw.NewRateLimit(run.Cache, 60),
		HealthHandler:  handler.NewHealthHandler(run.Store, run.Cache, run.Loki),
		AnalyzeHandler: handler.NewAnalyzeHandler(run),
	}
	if run.Store != nil {
		deps.ListReports = handler.NewListReportsHandler(run.Store)
		deps.GetReport = handler.NewGetReportHandler(run.Store, run.Cache, cfg.Redis.TTL)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
