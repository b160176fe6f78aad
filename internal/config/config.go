// Package config loads and validates all lokiscope configuration:
// environment variables for the process surfaces (server, Loki,
// optional Postgres archive and Redis cache) and a YAML file for the
// analysis behavior (categories, thresholds, impact templates).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process-level configuration from the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Loki     LokiConfig
	Query    QueryConfig
	Report   ReportConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

// DatabaseConfig configures the optional report archive. An empty URL
// disables archiving entirely.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional Loki query-result cache. An
// empty URL disables caching.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

type LokiConfig struct {
	BaseURL  string
	Username string
	Password string
	OrgID    string
	Timeout  time.Duration
}

// QueryConfig shapes the LogQL query used when fetching from Loki.
type QueryConfig struct {
	Stream   string
	Level    string
	Limit    int
	DaysBack int
	Start    time.Time
	End      time.Time
}

type ReportConfig struct {
	Title                   string
	Organization            string
	Footer                  string
	IncludeRecommendations  bool
	IncludeTechnicalDetails bool
}

// AuthConfig holds an optional bcrypt hash of the serve-mode API
// token. Empty disables authentication.
type AuthConfig struct {
	TokenHash string
}

// Load reads configuration from environment variables and returns a
// validated Config. Configuration errors are fatal before any
// processing starts.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("LOKISCOPE_PORT", 8080),
			Env:  envString("LOKISCOPE_ENV", "dev"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
			TTL: envDuration("REDIS_CACHE_TTL", 15*time.Minute),
		},
		Loki: LokiConfig{
			BaseURL:  os.Getenv("LOKI_BASE_URL"),
			Username: os.Getenv("LOKI_USERNAME"),
			Password: os.Getenv("LOKI_PASSWORD"),
			OrgID:    envString("LOKI_ORG_ID", "default"),
			Timeout:  envDuration("LOKI_TIMEOUT", 30*time.Second),
		},
		Query: QueryConfig{
			Stream:   envString("LOKISCOPE_STREAM", "stdout"),
			Level:    envString("LOKISCOPE_LEVEL", "(error|Error|ERROR)"),
			Limit:    envInt("LOKISCOPE_QUERY_LIMIT", 100000),
			DaysBack: envInt("LOKISCOPE_DAYS_BACK", 1),
		},
		Report: ReportConfig{
			Title:                   envString("LOKISCOPE_REPORT_TITLE", "Loki Error Analysis Report"),
			Organization:            envString("LOKISCOPE_REPORT_ORG", ""),
			Footer:                  envString("LOKISCOPE_REPORT_FOOTER", "Generated by lokiscope"),
			IncludeRecommendations:  envBool("LOKISCOPE_REPORT_RECOMMENDATIONS", true),
			IncludeTechnicalDetails: envBool("LOKISCOPE_REPORT_TECHNICAL", true),
		},
		Auth: AuthConfig{
			TokenHash: os.Getenv("LOKISCOPE_API_TOKEN_HASH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("LOKISCOPE_PORT must be in 1..65535, got %d", c.Server.Port)
	}

	if c.Loki.BaseURL != "" &&
		!strings.HasPrefix(c.Loki.BaseURL, "http://") &&
		!strings.HasPrefix(c.Loki.BaseURL, "https://") {
		return fmt.Errorf("LOKI_BASE_URL must start with http:// or https://, got %q", c.Loki.BaseURL)
	}

	if c.Query.Limit <= 0 {
		return fmt.Errorf("LOKISCOPE_QUERY_LIMIT must be positive, got %d", c.Query.Limit)
	}
	if c.Query.DaysBack <= 0 {
		return fmt.Errorf("LOKISCOPE_DAYS_BACK must be positive, got %d", c.Query.DaysBack)
	}

	return nil
}

// ApplyEnvironment overlays the per-environment deployment profile on
// top of the loaded config. prod analyses the previous day's 19:00 to
// 22:00 UTC window by default; dev keeps the rolling window.
func (c *Config) ApplyEnvironment(env string, now time.Time) error {
	switch env {
	case "dev":
		c.Server.Env = "dev"
		if os.Getenv("LOKI_ORG_ID") == "" {
			c.Loki.OrgID = "dev"
		}
		c.Report.Title = c.Report.Title + " - DEV"
	case "prod":
		c.Server.Env = "prod"
		if os.Getenv("LOKI_ORG_ID") == "" {
			c.Loki.OrgID = "prod"
		}
		if os.Getenv("LOKISCOPE_QUERY_LIMIT") == "" {
			c.Query.Limit = 500000
		}
		c.Report.Title = c.Report.Title + " - PRODUCTION"

		yesterday := now.UTC().AddDate(0, 0, -1)
		c.Query.Start = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 19, 0, 0, 0, time.UTC)
		c.Query.End = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 22, 0, 0, 0, time.UTC)
	default:
		return fmt.Errorf("unknown environment %q: must be dev or prod", env)
	}
	return nil
}

// QueryWindow returns the effective time range for a Loki fetch: the
// explicit start/end when set, otherwise DaysBack back from now.
func (c *Config) QueryWindow(now time.Time) (time.Time, time.Time) {
	if !c.Query.Start.IsZero() && !c.Query.End.IsZero() {
		return c.Query.Start, c.Query.End
	}
	end := now.UTC()
	return end.AddDate(0, 0, -c.Query.DaysBack), end
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
