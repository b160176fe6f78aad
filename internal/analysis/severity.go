package analysis

import (
	"sort"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// SeverityThresholds tier a run by its global critical-error count.
// Both bounds are strict: count > CriticalAbove yields CRITICAL,
// count > WarningAbove yields WARNING, anything else STABLE. Tiering
// is monotonic in the critical-error count by construction.
type SeverityThresholds struct {
	CriticalAbove int `yaml:"critical_above"`
	WarningAbove  int `yaml:"warning_above"`
}

// DefaultSeverityThresholds returns the deployment defaults.
func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{CriticalAbove: 100, WarningAbove: 20}
}

const topServiceCount = 3

// ClassifySeverity derives the coarse overall health tier and headline
// facts from an analysis result. Pure function: same result, same
// summary.
func ClassifySeverity(result models.AnalysisResult, th SeverityThresholds) models.Summary {
	summary := models.Summary{
		TotalErrors:        result.TotalErrors,
		ServicesAffected:   len(result.ServiceMetrics),
		CriticalErrorCount: result.CriticalErrorTotal,
		TopServices:        topServices(result, topServiceCount),
	}

	switch {
	case result.CriticalErrorTotal > th.CriticalAbove:
		summary.Tier = models.SeverityCritical
		summary.Action = "Immediate action required - high number of critical errors detected"
	case result.CriticalErrorTotal > th.WarningAbove:
		summary.Tier = models.SeverityWarning
		summary.Action = "Monitor closely - elevated error levels detected"
	default:
		summary.Tier = models.SeverityStable
		summary.Action = "System appears stable - continue monitoring"
	}

	summary.TopCategory, summary.TopCategoryCount = topCategory(result.CategoryHistogram)

	return summary
}

// topCategory picks the single most frequent category; ties break on
// name so the choice is reproducible.
func topCategory(histogram map[string]int) (string, int) {
	names := make([]string, 0, len(histogram))
	for name := range histogram {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestCount := "", 0
	for _, name := range names {
		if histogram[name] > bestCount {
			best, bestCount = name, histogram[name]
		}
	}
	return best, bestCount
}

// topServices ranks the post-filter services by total errors, ties
// broken by first-seen order.
func topServices(result models.AnalysisResult, n int) []models.ServiceRank {
	ranks := make([]models.ServiceRank, 0, len(result.ServiceMetrics))
	for _, name := range result.ServiceOrder {
		metrics, ok := result.ServiceMetrics[name]
		if !ok {
			continue
		}
		ranks = append(ranks, models.ServiceRank{Service: name, TotalErrors: metrics.TotalErrors})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].TotalErrors > ranks[j].TotalErrors
	})

	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}
