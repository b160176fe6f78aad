package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lokiscope/lokiscope/internal/analysis"
	"github.com/lokiscope/lokiscope/pkg/models"
)

// AnalysisConfig is the YAML-backed behavior configuration: ordered
// error categories, filter and severity thresholds, and the
// business-impact template registry.
type AnalysisConfig struct {
	Categories            []models.Category           `yaml:"categories"`
	ExtraCriticalKeywords []string                    `yaml:"extra_critical_keywords"`
	Thresholds            analysis.Thresholds         `yaml:"thresholds"`
	Limits                analysis.Limits             `yaml:"limits"`
	Severity              analysis.SeverityThresholds `yaml:"severity"`
	Impact                analysis.ImpactThresholds   `yaml:"impact"`
	ImpactTemplates       []analysis.ImpactTemplate   `yaml:"impact_templates"`
	ServiceTemplates      map[string]string           `yaml:"service_templates"`
	Debug                 bool                        `yaml:"debug"`
}

// LoadAnalysisConfig reads and validates the analysis configuration.
// An empty path returns the built-in defaults; a path that exists but
// fails to parse or validate is a fatal configuration error.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	if path == "" {
		return DefaultAnalysisConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading analysis config %s: %w", path, err)
	}

	var cfg AnalysisConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing analysis config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("analysis config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *AnalysisConfig) validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("categories must list at least one error category")
	}
	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if seen[cat.Name] {
			return fmt.Errorf("category %q appears twice", cat.Name)
		}
		seen[cat.Name] = true
		if len(cat.Keywords) == 0 {
			return fmt.Errorf("category %q has no keywords", cat.Name)
		}
	}

	templates := make(map[string]bool, len(c.ImpactTemplates))
	for i, t := range c.ImpactTemplates {
		if t.ID == "" {
			return fmt.Errorf("impact template %d has no id", i)
		}
		if templates[t.ID] {
			return fmt.Errorf("impact template %q appears twice", t.ID)
		}
		templates[t.ID] = true
	}
	for svc, id := range c.ServiceTemplates {
		if !templates[id] {
			return fmt.Errorf("service %q references unknown impact template %q", svc, id)
		}
	}

	return nil
}

// EngineConfig projects the YAML config into the engine's shape.
func (c *AnalysisConfig) EngineConfig() analysis.Config {
	return analysis.Config{
		Categories:            c.Categories,
		ExtraCriticalKeywords: c.ExtraCriticalKeywords,
		Thresholds:            c.Thresholds,
		Limits:                c.Limits,
		Severity:              c.Severity,
		Debug:                 c.Debug,
	}
}

// Narrator builds the impact narrator from the template registry.
func (c *AnalysisConfig) Narrator() *analysis.Narrator {
	return analysis.NewNarrator(c.ImpactTemplates, c.ServiceTemplates, c.Impact)
}

// DefaultAnalysisConfig returns the built-in category taxonomy and
// thresholds used when no config file is supplied.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Categories: []models.Category{
			{Name: "database", Keywords: []string{"database", "sql", "connection pool", "deadlock", "postgres", "sqlexception"}},
			{Name: "network", Keywords: []string{"timeout", "connection refused", "connection reset", "unreachable", "dns", "socket"}},
			{Name: "authentication", Keywords: []string{"unauthorized", "forbidden", "token", "credential", "authentication", "401", "403"}},
			{Name: "validation", Keywords: []string{"validation", "invalid", "malformed", "bad request", "constraint", "400"}},
			{Name: "resource", Keywords: []string{"out of memory", "oom", "disk", "quota", "too many open files", "resource exhausted"}},
			{Name: "upstream", Keywords: []string{"503", "502", "500", "bad gateway", "service unavailable", "upstream"}},
		},
		ExtraCriticalKeywords: []string{"fatal", "panic"},
		Thresholds: analysis.Thresholds{
			MinMessageOccurrences:  2,
			MinCriticalOccurrences: 2,
			MinServiceErrors:       1,
		},
		Limits:   analysis.DefaultLimits(),
		Severity: analysis.DefaultSeverityThresholds(),
		Impact:   analysis.DefaultImpactThresholds(),
	}
}
