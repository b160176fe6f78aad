package analysis

import (
	"encoding/json"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// linePayload mirrors the structured-logging JSON that application pods
// embed in the Loki line. Message and StackTrace are decoded as `any`
// because some emitters log objects in those fields.
type linePayload struct {
	Level      string `json:"level"`
	Message    any    `json:"message"`
	StackTrace any    `json:"stackTrace"`
	Timestamp  string `json:"timestamp"`
	Source     struct {
		File   string `json:"file"`
		Method string `json:"method"`
	} `json:"source"`
}

// Normalize parses one raw record into its canonical entry. It never
// fails: when the embedded payload is not valid JSON the message falls
// back to the raw line text and the payload-derived fields stay empty.
// The stream timestamp still applies on that path, so unparseable
// lines keep their place in the hour histogram.
func Normalize(raw models.RawEntry) models.NormalizedEntry {
	entry := models.NormalizedEntry{
		App:       raw.Label("app"),
		Pod:       raw.Label("pod"),
		Namespace: raw.Label("namespace"),
		Container: raw.Label("container"),
		NodeName:  raw.Label("node_name"),
		Service:   raw.Label("service_name"),
	}

	var p linePayload
	if err := json.Unmarshal([]byte(raw.Line), &p); err != nil {
		entry.Level = models.UnknownLabel
		entry.Message = raw.Line
		entry.Timestamp = raw.Timestamp
		return entry
	}

	entry.Level = p.Level
	if entry.Level == "" {
		entry.Level = models.UnknownLabel
	}
	entry.Message = stringify(p.Message)
	entry.StackTrace = stringify(p.StackTrace)
	entry.SourceFile = p.Source.File
	entry.SourceMethod = p.Source.Method

	// Prefer the payload timestamp, fall back to the stream timestamp.
	entry.Timestamp = p.Timestamp
	if entry.Timestamp == "" {
		entry.Timestamp = raw.Timestamp
	}

	return entry
}

// stringify renders a decoded JSON value as text. Emitters that log an
// object where a string belongs get the compact JSON encoding instead
// of being dropped.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
