// Package models contains shared data models used across the lokiscope codebase.
package models

// RawEntry is one log record as fetched from Loki (or loaded from a
// logcli-style JSONL export): a free-form label set plus the raw line,
// which usually carries a JSON-encoded application log payload.
type RawEntry struct {
	Labels    map[string]string `json:"labels"`
	Line      string            `json:"line"`
	Timestamp string            `json:"timestamp,omitempty"`
}

// UnknownLabel is the default for label lookups on entries that lack
// the label. Downstream code can rely on it being non-empty.
const UnknownLabel = "unknown"

// Label returns the named label or UnknownLabel when absent or empty.
func (e RawEntry) Label(name string) string {
	if v := e.Labels[name]; v != "" {
		return v
	}
	return UnknownLabel
}

// NormalizedEntry is the canonical, immutable view of one raw record.
// Built once by analysis.Normalize and never mutated afterwards.
type NormalizedEntry struct {
	App       string `json:"app"`
	Pod       string `json:"pod"`
	Namespace string `json:"namespace"`
	Container string `json:"container"`
	NodeName  string `json:"node_name"`
	Service   string `json:"service_name"`

	// Fields decoded from the embedded payload. All empty when the
	// payload is not valid JSON, except Message which falls back to
	// the raw line text.
	Level        string `json:"level"`
	Message      string `json:"message"`
	StackTrace   string `json:"stack_trace,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	SourceFile   string `json:"source_file,omitempty"`
	SourceMethod string `json:"source_method,omitempty"`
}
