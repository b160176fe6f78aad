package models

// Category is one named error bucket defined by case-insensitive
// substring keywords. Categories are matched in configuration order,
// first match wins; the reserved catch-all bucket is CategoryOther.
type Category struct {
	Name     string   `json:"name"     yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// CategoryOther is the reserved bucket for entries no category matched.
const CategoryOther = "other"

// MessageCount is one message with its occurrence count. Slices of
// MessageCount are ordered by count descending, ties broken by first
// occurrence in the input stream.
type MessageCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ServiceMetrics is the per-service (per `app` label) error rollup.
type ServiceMetrics struct {
	TotalErrors        int            `json:"total_errors"`
	UniquePods         int            `json:"unique_pods"`
	Namespaces         []string       `json:"namespaces"`
	CategoryHistogram  map[string]int `json:"category_histogram"`
	TopMessages        []MessageCount `json:"top_messages"`
	CriticalErrorCount int            `json:"critical_error_count"`
}

// CriticalErrorRecord groups critical entries whose messages share a
// truncated prefix. Sample is one full original entry from the group.
type CriticalErrorRecord struct {
	Sample   NormalizedEntry `json:"sample"`
	Category string          `json:"category"`
	Count    int             `json:"count"`
}

// AnalysisResult is the engine's single output for one analysis run.
//
// TotalErrors and the histograms are pre-filter (true global counts);
// ServiceMetrics, TopMessages and CriticalErrors are post-filter
// projections. Report percentages must always be computed against
// TotalErrors, never against a filtered subset.
type AnalysisResult struct {
	TotalErrors        int                       `json:"total_errors"`
	CategoryHistogram  map[string]int            `json:"category_histogram"`
	ServiceMetrics     map[string]ServiceMetrics `json:"service_metrics"`
	HourHistogram      map[int]int               `json:"hour_histogram"`
	TopMessages        []MessageCount            `json:"top_messages"`
	CriticalErrors     []CriticalErrorRecord     `json:"critical_errors"`
	NamespaceHistogram map[string]int            `json:"namespace_histogram"`

	// CriticalErrorTotal is the pre-filter global count of entries
	// flagged critical. Severity tiering keys off this value.
	CriticalErrorTotal int `json:"critical_error_total"`

	// ServiceOrder lists all pre-filter service names in first-seen
	// input order. It is the tie-break for top-service rankings, so
	// recomputing a ranking from the same input is reproducible.
	ServiceOrder []string `json:"service_order"`

	// SkippedRecords counts input records dropped during decoding.
	SkippedRecords int `json:"skipped_records,omitempty"`
}
