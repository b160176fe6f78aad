// Package store persists analysis reports. Postgres backs the real
// archive; an in-memory implementation serves tests and ephemeral runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lokiscope/lokiscope/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the report archive interface. All database operations go
// through here. Archived reports are write-once: they feed dashboards
// and audits, never subsequent analysis runs.
type Store interface {
	Ping(ctx context.Context) error
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, int, error)
}

// ReportFilter narrows and pages a report listing.
type ReportFilter struct {
	Environment string
	Severity    string
	Since       time.Time
	Page        int
	Limit       int
}

func (f ReportFilter) normalize() ReportFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return f
}
