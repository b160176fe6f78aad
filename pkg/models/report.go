package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is one archived analysis run: the rendered markdown plus the
// AnalysisResult it was rendered from. Reports are write-once; no
// analysis run ever reads a previous report back into the engine.
type Report struct {
	ID          uuid.UUID      `db:"id"           json:"id"`
	Environment string         `db:"environment"  json:"environment"`
	Title       string         `db:"title"        json:"title"`
	Severity    SeverityTier   `db:"severity"     json:"severity"`
	TotalErrors int            `db:"total_errors" json:"total_errors"`
	RangeStart  time.Time      `db:"range_start"  json:"range_start"`
	RangeEnd    time.Time      `db:"range_end"    json:"range_end"`
	Result      AnalysisResult `db:"result"       json:"result"`
	Markdown    string         `db:"markdown"     json:"markdown"`
	CreatedAt   time.Time      `db:"created_at"   json:"created_at"`
}
