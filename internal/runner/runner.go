// Package runner orchestrates one full analysis run: obtain a raw
// batch (file, request body, or Loki), run the engine, narrate the top
// services, render markdown, and optionally archive the report.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lokiscope/lokiscope/internal/analysis"
	"github.com/lokiscope/lokiscope/internal/cache"
	"github.com/lokiscope/lokiscope/internal/config"
	"github.com/lokiscope/lokiscope/internal/loki"
	"github.com/lokiscope/lokiscope/internal/report"
	"github.com/lokiscope/lokiscope/internal/store"
	"github.com/lokiscope/lokiscope/pkg/logql"
	"github.com/lokiscope/lokiscope/pkg/models"
)

// impactServices is how many top services get a business-impact
// narrative appended to the report.
const impactServices = 3

// Runner wires the engine to its surrounding infrastructure. Store,
// Cache and Loki are optional; a nil field disables that concern.
type Runner struct {
	Engine   *analysis.Engine
	Narrator *analysis.Narrator
	Cfg      *config.Config
	Analysis *config.AnalysisConfig

	Store store.Store
	Cache cache.Cache
	Loki  loki.Client

	// Now is the clock, injectable for tests.
	Now func() time.Time
}

// Output is everything one run produces.
type Output struct {
	Report   *models.Report        `json:"report,omitempty"`
	Summary  models.Summary        `json:"summary"`
	Result   models.AnalysisResult `json:"result"`
	Impacts  []models.Impact       `json:"impacts"`
	Markdown string                `json:"-"`
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// AnalyzeReader decodes a raw batch from rd and runs the pipeline.
// When archive is true and a store is configured, the finished report
// is persisted.
func (r *Runner) AnalyzeReader(ctx context.Context, rd io.Reader, archive bool) (*Output, error) {
	raw, skipped, err := analysis.DecodeBatch(rd)
	if err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return r.analyze(ctx, raw, skipped, "", archive)
}

// FetchAndAnalyze queries Loki for the configured window and runs the
// pipeline over the fetched batch. Results are served from the query
// cache when available.
func (r *Runner) FetchAndAnalyze(ctx context.Context, archive bool) (*Output, error) {
	if r.Loki == nil {
		return nil, fmt.Errorf("no loki client configured: set LOKI_BASE_URL or use an input file")
	}

	query := logql.QueryBuilder{}.BuildErrorQuery(logql.ErrorParams{
		Stream:       r.Cfg.Query.Stream,
		LevelPattern: r.Cfg.Query.Level,
	})
	start, end := r.Cfg.QueryWindow(r.now())

	raw, err := r.fetchCached(ctx, query, start, end)
	if err != nil {
		return nil, err
	}

	return r.analyze(ctx, raw, 0, query, archive)
}

// fetchCached consults the Redis cache before hitting Loki. Cache
// failures degrade to a direct fetch.
func (r *Runner) fetchCached(ctx context.Context, query string, start, end time.Time) ([]models.RawEntry, error) {
	var key string
	if r.Cache != nil {
		key = cache.QueryKey(r.Cfg.Loki.OrgID, query, start, end)
		if data, found, err := r.Cache.Get(ctx, key); err == nil && found {
			var cached []models.RawEntry
			if err := json.Unmarshal(data, &cached); err == nil {
				slog.Debug("loki query served from cache", "key", key, "entries", len(cached))
				return cached, nil
			}
		}
	}

	raw, err := r.Loki.QueryRange(ctx, loki.QueryRangeRequest{
		Query: query,
		Start: start,
		End:   end,
		Limit: r.Cfg.Query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch from loki: %w", err)
	}
	slog.Info("fetched log batch", "query", query, "entries", len(raw))

	if r.Cache != nil {
		if data, err := json.Marshal(raw); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.Cfg.Redis.TTL); err != nil {
				slog.Warn("caching loki result failed", "error", err)
			}
		}
	}
	return raw, nil
}

func (r *Runner) analyze(ctx context.Context, raw []models.RawEntry, skipped int, query string, archive bool) (*Output, error) {
	entries := make([]models.NormalizedEntry, 0, len(raw))
	byService := make(map[string][]models.NormalizedEntry)
	for _, re := range raw {
		entry := analysis.Normalize(re)
		entries = append(entries, entry)
		byService[entry.App] = append(byService[entry.App], entry)
	}

	result := r.Engine.AnalyzeEntries(entries)
	result.SkippedRecords += skipped
	summary := r.Engine.Summarize(result)

	impacts := make([]models.Impact, 0, len(summary.TopServices))
	for i, rank := range summary.TopServices {
		if i >= impactServices {
			break
		}
		metrics, ok := result.ServiceMetrics[rank.Service]
		if !ok {
			continue
		}
		impacts = append(impacts, r.Narrator.Narrate(rank.Service, metrics, byService[rank.Service], result.TotalErrors))
	}

	start, end := r.Cfg.QueryWindow(r.now())
	markdown := report.Render(result, summary, impacts, report.Options{
		Title:                   r.Cfg.Report.Title,
		Organization:            r.Cfg.Report.Organization,
		Footer:                  r.Cfg.Report.Footer,
		Environment:             r.Cfg.Server.Env,
		Categories:              r.Analysis.Categories,
		RangeStart:              start,
		RangeEnd:                end,
		Query:                   query,
		QueryLimit:              r.Cfg.Query.Limit,
		GeneratedAt:             r.now(),
		IncludeRecommendations:  r.Cfg.Report.IncludeRecommendations,
		IncludeTechnicalDetails: r.Cfg.Report.IncludeTechnicalDetails,
	})

	out := &Output{
		Summary:  summary,
		Result:   result,
		Impacts:  impacts,
		Markdown: markdown,
	}

	if archive && r.Store != nil {
		rep := &models.Report{
			ID:          uuid.New(),
			Environment: r.Cfg.Server.Env,
			Title:       r.Cfg.Report.Title,
			Severity:    summary.Tier,
			TotalErrors: result.TotalErrors,
			RangeStart:  start,
			RangeEnd:    end,
			Result:      result,
			Markdown:    markdown,
			CreatedAt:   r.now().UTC(),
		}
		if err := r.Store.SaveReport(ctx, rep); err != nil {
			return nil, fmt.Errorf("archive report: %w", err)
		}
		slog.Info("report archived", "id", rep.ID, "severity", rep.Severity)
		out.Report = rep
	}

	return out, nil
}
