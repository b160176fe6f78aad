package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokiscope/lokiscope/internal/config"
)

// setEnv is a helper that sets environment variables for a test and restores them after.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, "default", cfg.Loki.OrgID)
	assert.Equal(t, 30*time.Second, cfg.Loki.Timeout)
	assert.Equal(t, 100000, cfg.Query.Limit)
	assert.Equal(t, 1, cfg.Query.DaysBack)
	assert.True(t, cfg.Report.IncludeRecommendations)
}

func TestLoad_CustomValues(t *testing.T) {
	setEnv(t, map[string]string{
		"LOKISCOPE_PORT":        "9090",
		"LOKI_BASE_URL":         "https://loki.example.com",
		"LOKI_TIMEOUT":          "45s",
		"LOKISCOPE_QUERY_LIMIT": "500",
		"REDIS_CACHE_TTL":       "1h",
	})

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://loki.example.com", cfg.Loki.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Loki.Timeout)
	assert.Equal(t, 500, cfg.Query.Limit)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"LOKISCOPE_PORT": "70000"}},
		{"bad loki scheme", map[string]string{"LOKI_BASE_URL": "loki.example.com"}},
		{"zero query limit", map[string]string{"LOKISCOPE_QUERY_LIMIT": "0"}},
		{"negative days back", map[string]string{"LOKISCOPE_DAYS_BACK": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_UnparseableEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("LOKISCOPE_PORT", "not-a-number")
	t.Setenv("LOKI_TIMEOUT", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Loki.Timeout)
}

func TestApplyEnvironment_Prod(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	now := time.Date(2025, 3, 15, 8, 30, 0, 0, time.UTC)
	require.NoError(t, cfg.ApplyEnvironment("prod", now))

	assert.Equal(t, "prod", cfg.Server.Env)
	assert.Equal(t, "prod", cfg.Loki.OrgID)
	assert.Equal(t, 500000, cfg.Query.Limit)
	assert.Contains(t, cfg.Report.Title, "PRODUCTION")

	start, end := cfg.QueryWindow(now)
	assert.Equal(t, time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC), end)
}

func TestApplyEnvironment_ProdKeepsExplicitOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"LOKI_ORG_ID":           "tenant-7",
		"LOKISCOPE_QUERY_LIMIT": "250",
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyEnvironment("prod", time.Now()))

	assert.Equal(t, "tenant-7", cfg.Loki.OrgID)
	assert.Equal(t, 250, cfg.Query.Limit)
}

func TestApplyEnvironment_Unknown(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Error(t, cfg.ApplyEnvironment("staging", time.Now()))
}

func TestQueryWindow_RollingDefault(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	start, end := cfg.QueryWindow(now)
	assert.Equal(t, now, end)
	assert.Equal(t, now.AddDate(0, 0, -1), start)
}

func TestLoadAnalysisConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadAnalysisConfig("")
	require.NoError(t, err)

	require.NotEmpty(t, cfg.Categories)
	assert.Equal(t, "database", cfg.Categories[0].Name)
	assert.Equal(t, 100, cfg.Limits.CriticalPrefixLen)
}

func TestLoadAnalysisConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
categories:
  - name: payments
    keywords: [stripe, "charge failed"]
  - name: queue
    keywords: [rabbitmq, redelivery]
extra_critical_keywords: [fatal]
thresholds:
  min_message_occurrences: 3
severity:
  critical_above: 50
  warning_above: 10
impact_templates:
  - id: payment-worker
    root_cause: "Payment pipeline degradation"
service_templates:
  boost-fee-worker: payment-worker
`)

	cfg, err := config.LoadAnalysisConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.Categories, 2)
	assert.Equal(t, "payments", cfg.Categories[0].Name)
	assert.Equal(t, 3, cfg.Thresholds.MinMessageOccurrences)
	assert.Equal(t, 50, cfg.Severity.CriticalAbove)
	assert.Equal(t, "payment-worker", cfg.ServiceTemplates["boost-fee-worker"])
}

func TestLoadAnalysisConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no categories", `thresholds: {min_message_occurrences: 1}`},
		{"unnamed category", `categories: [{keywords: [x]}]`},
		{"category without keywords", `categories: [{name: empty}]`},
		{"duplicate category", "categories:\n  - {name: a, keywords: [x]}\n  - {name: a, keywords: [y]}"},
		{"dangling service template", "categories: [{name: a, keywords: [x]}]\nservice_templates: {svc: nowhere}"},
		{"not yaml", `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := config.LoadAnalysisConfig(path)
			require.Error(t, err)
		})
	}
}

func TestLoadAnalysisConfig_MissingFile(t *testing.T) {
	_, err := config.LoadAnalysisConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
