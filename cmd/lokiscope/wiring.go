package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lokiscope/lokiscope/internal/analysis"
	"github.com/lokiscope/lokiscope/internal/cache"
	"github.com/lokiscope/lokiscope/internal/config"
	"github.com/lokiscope/lokiscope/internal/loki"
	"github.com/lokiscope/lokiscope/internal/runner"
	"github.com/lokiscope/lokiscope/internal/store"
)

// deps bundles the infrastructure a command wires up, with the
// teardown for whatever was actually connected.
type deps struct {
	Runner *runner.Runner
	close  []func()
}

func (d *deps) Close() {
	for i := len(d.close) - 1; i >= 0; i-- {
		d.close[i]()
	}
}

// buildDeps loads the analysis config and connects every optional
// backend the environment configures. Missing optional backends
// (database, redis, loki) disable their features; a broken analysis
// config is fatal.
func buildDeps(ctx context.Context, cfg *config.Config, analysisPath string) (*deps, error) {
	ac, err := config.LoadAnalysisConfig(analysisPath)
	if err != nil {
		return nil, err
	}

	engine, err := analysis.New(ac.EngineConfig())
	if err != nil {
		return nil, err
	}

	d := &deps{}
	run := &runner.Runner{
		Engine:   engine,
		Narrator: ac.Narrator(),
		Cfg:      cfg,
		Analysis: ac,
		Now:      time.Now,
	}

	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		d.close = append(d.close, pool.Close)

		if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
			d.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		run.Store = store.NewPostgresStore(pool)
		slog.Info("report archive connected")
	}

	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		d.close = append(d.close, func() { redisCache.Close() })

		if err := redisCache.Ping(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		run.Cache = redisCache
		slog.Info("redis connected")
	}

	if cfg.Loki.BaseURL != "" {
		run.Loki = loki.NewHTTPClient(
			cfg.Loki.BaseURL, cfg.Loki.Username, cfg.Loki.Password,
			cfg.Loki.OrgID, cfg.Loki.Timeout)
	}

	d.Runner = run
	return d, nil
}
