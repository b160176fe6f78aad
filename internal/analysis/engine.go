// Package analysis implements the error classification and aggregation
// engine: one sequential pass over a materialized batch of raw log
// records, followed by one frequency-filter pass, producing a single
// AnalysisResult. Components hold no cross-call state; every run builds
// its own accumulators and discards them with the result.
package analysis

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// Limits centralizes the truncation and top-N constants that shape the
// result's projections.
type Limits struct {
	// CriticalPrefixLen is the message prefix length used as the
	// grouping key for critical-error counting.
	CriticalPrefixLen int `yaml:"critical_prefix_len"`
	// TopMessagesPerService caps each service's top-message list.
	TopMessagesPerService int `yaml:"top_messages_per_service"`
	// TopMessagesGlobal caps AnalysisResult.TopMessages.
	TopMessagesGlobal int `yaml:"top_messages_global"`
	// MaxCriticalErrors caps AnalysisResult.CriticalErrors.
	MaxCriticalErrors int `yaml:"max_critical_errors"`
}

// DefaultLimits returns the deployment defaults.
func DefaultLimits() Limits {
	return Limits{
		CriticalPrefixLen:     100,
		TopMessagesPerService: 5,
		TopMessagesGlobal:     10,
		MaxCriticalErrors:     20,
	}
}

// Config holds everything the engine needs for a run. Categories is
// mandatory; the rest defaults sensibly via New.
type Config struct {
	Categories            []models.Category
	ExtraCriticalKeywords []string
	Thresholds            Thresholds
	Limits                Limits
	Severity              SeverityThresholds
	Debug                 bool
}

// Engine is the analysis pipeline. Safe for concurrent use: all
// mutable state is scoped to a single Analyze call.
type Engine struct {
	classifier *Classifier
	cfg        Config
}

// New validates the configuration and builds an engine. Configuration
// errors are fatal here, before any processing starts.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("analysis config: at least one error category is required")
	}
	for i, cat := range cfg.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("analysis config: category %d has no name", i)
		}
		if len(cat.Keywords) == 0 {
			return nil, fmt.Errorf("analysis config: category %q has no keywords", cat.Name)
		}
	}
	if cfg.Thresholds.MinMessageOccurrences < 0 ||
		cfg.Thresholds.MinCriticalOccurrences < 0 ||
		cfg.Thresholds.MinServiceErrors < 0 {
		return nil, fmt.Errorf("analysis config: thresholds must be non-negative")
	}

	if cfg.Limits == (Limits{}) {
		cfg.Limits = DefaultLimits()
	}
	if cfg.Limits.CriticalPrefixLen <= 0 {
		return nil, fmt.Errorf("analysis config: critical_prefix_len must be positive")
	}

	if cfg.Severity == (SeverityThresholds{}) {
		cfg.Severity = DefaultSeverityThresholds()
	}
	if cfg.Severity.CriticalAbove < cfg.Severity.WarningAbove {
		return nil, fmt.Errorf("analysis config: critical_above (%d) must not be below warning_above (%d)",
			cfg.Severity.CriticalAbove, cfg.Severity.WarningAbove)
	}

	return &Engine{
		classifier: NewClassifier(cfg.Categories, cfg.ExtraCriticalKeywords),
		cfg:        cfg,
	}, nil
}

// Analyze normalizes and analyzes one raw batch. Empty input yields a
// zero-valued result, never an error.
func (e *Engine) Analyze(raw []models.RawEntry) models.AnalysisResult {
	entries := make([]models.NormalizedEntry, len(raw))
	for i, r := range raw {
		entries[i] = Normalize(r)
	}
	return e.AnalyzeEntries(entries)
}

// AnalyzeEntries runs aggregation and filtering over already-normalized
// entries.
func (e *Engine) AnalyzeEntries(entries []models.NormalizedEntry) models.AnalysisResult {
	agg := newAggregation()
	for i, entry := range entries {
		category := e.classifier.Categorize(entry)
		critical := e.classifier.IsCritical(entry)
		agg.add(entry, i, category, critical, e.cfg.Limits.CriticalPrefixLen)
	}

	result, report := Filter(agg.result(e.cfg.Limits), e.cfg.Thresholds, e.cfg.Limits)

	if e.cfg.Debug && !report.Empty() {
		slog.Debug("frequency filter suppressed results",
			"dropped_messages", len(report.DroppedMessages),
			"dropped_critical", len(report.DroppedCritical),
			"dropped_services", report.DroppedServices,
		)
	}

	return result
}

// Summarize derives the severity summary for a result produced by this
// engine's configuration.
func (e *Engine) Summarize(result models.AnalysisResult) models.Summary {
	return ClassifySeverity(result, e.cfg.Severity)
}

// truncate shortens s to at most maxBytes without splitting UTF-8
// runes.
func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
