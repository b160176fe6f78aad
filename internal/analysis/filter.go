package analysis

import (
	"github.com/lokiscope/lokiscope/pkg/models"
)

// Thresholds are the frequency-filter minimums. A fact below its
// threshold is dropped from the result, its count discarded rather
// than redistributed. Zero or one disables a threshold.
type Thresholds struct {
	// MinMessageOccurrences is the minimum global count for a message
	// to appear in AnalysisResult.TopMessages.
	MinMessageOccurrences int `yaml:"min_message_occurrences"`
	// MinCriticalOccurrences is the minimum group count for a critical
	// error to appear in AnalysisResult.CriticalErrors.
	MinCriticalOccurrences int `yaml:"min_critical_occurrences"`
	// MinServiceErrors is the minimum pre-filter total for a service to
	// appear in AnalysisResult.ServiceMetrics at all.
	MinServiceErrors int `yaml:"min_service_errors"`
}

// FilterReport records what the frequency filter suppressed, for debug
// output. Producing it never alters the filtered result.
type FilterReport struct {
	DroppedMessages []models.MessageCount `json:"dropped_messages"`
	DroppedCritical []models.MessageCount `json:"dropped_critical"`
	DroppedServices []models.ServiceRank  `json:"dropped_services"`
}

// Empty reports whether the filter suppressed nothing.
func (r FilterReport) Empty() bool {
	return len(r.DroppedMessages) == 0 && len(r.DroppedCritical) == 0 && len(r.DroppedServices) == 0
}

// Filter applies the frequency thresholds and top-N caps to a fully
// aggregated result. It runs strictly after aggregation so thresholds
// see true global counts, and it is idempotent: filtering an already
// filtered result changes nothing. The pre-filter totals and
// histograms pass through untouched; they are the denominators for
// every percentage downstream.
func Filter(result models.AnalysisResult, th Thresholds, limits Limits) (models.AnalysisResult, FilterReport) {
	var report FilterReport

	kept := make([]models.MessageCount, 0, len(result.TopMessages))
	for _, mc := range result.TopMessages {
		if mc.Count < th.MinMessageOccurrences {
			report.DroppedMessages = append(report.DroppedMessages, mc)
			continue
		}
		kept = append(kept, mc)
	}
	if limits.TopMessagesGlobal > 0 && len(kept) > limits.TopMessagesGlobal {
		kept = kept[:limits.TopMessagesGlobal]
	}
	result.TopMessages = kept

	keptCritical := make([]models.CriticalErrorRecord, 0, len(result.CriticalErrors))
	for _, rec := range result.CriticalErrors {
		if rec.Count < th.MinCriticalOccurrences {
			report.DroppedCritical = append(report.DroppedCritical, models.MessageCount{
				Message: rec.Sample.Message,
				Count:   rec.Count,
			})
			continue
		}
		keptCritical = append(keptCritical, rec)
	}
	if limits.MaxCriticalErrors > 0 && len(keptCritical) > limits.MaxCriticalErrors {
		keptCritical = keptCritical[:limits.MaxCriticalErrors]
	}
	result.CriticalErrors = keptCritical

	// Walk services in first-seen order so the debug report is stable.
	keptServices := make(map[string]models.ServiceMetrics, len(result.ServiceMetrics))
	for _, name := range result.ServiceOrder {
		metrics, ok := result.ServiceMetrics[name]
		if !ok {
			continue
		}
		if metrics.TotalErrors < th.MinServiceErrors {
			report.DroppedServices = append(report.DroppedServices, models.ServiceRank{
				Service:     name,
				TotalErrors: metrics.TotalErrors,
			})
			continue
		}
		keptServices[name] = metrics
	}
	result.ServiceMetrics = keptServices

	return result, report
}
