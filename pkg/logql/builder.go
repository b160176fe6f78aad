// Package logql constructs LogQL query strings for error fetches.
package logql

import (
	"fmt"
	"strings"
)

// QueryBuilder constructs safe LogQL query strings.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type QueryBuilder struct{}

// ErrorParams defines inputs for error-log fetch queries. Stream
// selects the log stream label; LevelPattern is a regex alternation
// matched against the parsed level field.
type ErrorParams struct {
	Stream       string
	Namespace    string
	App          string
	LevelPattern string
	Keyword      string
}

// BuildErrorQuery returns a LogQL query selecting error lines:
// a stream selector, JSON parsing, and a level regex filter.
func (b QueryBuilder) BuildErrorQuery(p ErrorParams) string {
	parts := []string{b.buildSelector(p)}

	if kf := b.buildKeywordFilter(p.Keyword); kf != "" {
		parts = append(parts, kf)
	}

	parts = append(parts, "| json")

	if lf := b.buildLevelFilter(p.LevelPattern); lf != "" {
		parts = append(parts, lf)
	}

	return strings.Join(parts, " ")
}

func (b QueryBuilder) buildSelector(p ErrorParams) string {
	labels := []string{}
	if p.Stream != "" {
		labels = append(labels, fmt.Sprintf(`stream="%s"`, p.Stream))
	}
	if p.Namespace != "" {
		labels = append(labels, fmt.Sprintf(`namespace="%s"`, p.Namespace))
	}
	if p.App != "" {
		labels = append(labels, fmt.Sprintf(`app="%s"`, p.App))
	}
	if len(labels) == 0 {
		// Loki rejects an empty selector; match any stream label.
		labels = append(labels, `stream=~".+"`)
	}
	return "{" + strings.Join(labels, ", ") + "}"
}

func (b QueryBuilder) buildLevelFilter(pattern string) string {
	if pattern == "" {
		return ""
	}
	return fmt.Sprintf(`| level =~ "%s"`, pattern)
}

func (b QueryBuilder) buildKeywordFilter(keyword string) string {
	if keyword == "" {
		return ""
	}
	return fmt.Sprintf("|= `%s`", keyword)
}
