package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokiscope/lokiscope/internal/store"
	"github.com/lokiscope/lokiscope/pkg/models"
)

func sampleReport(env string, severity models.SeverityTier, createdAt time.Time) *models.Report {
	return &models.Report{
		ID:          uuid.New(),
		Environment: env,
		Title:       "Loki Error Analysis Report",
		Severity:    severity,
		TotalErrors: 42,
		RangeStart:  createdAt.Add(-3 * time.Hour),
		RangeEnd:    createdAt,
		Result:      models.AnalysisResult{TotalErrors: 42},
		Markdown:    "# report",
		CreatedAt:   createdAt,
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	r := sampleReport("prod", models.SeverityCritical, time.Now().UTC())
	require.NoError(t, s.SaveReport(ctx, r))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, 42, got.Result.TotalErrors)
	assert.Equal(t, "# report", got.Markdown)
}

func TestMemoryStore_SaveDuplicate(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	r := sampleReport("prod", models.SeverityStable, time.Now().UTC())
	require.NoError(t, s.SaveReport(ctx, r))
	assert.ErrorIs(t, s.SaveReport(ctx, r), store.ErrDuplicateKey)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := store.NewMemoryStore()
	_, err := s.GetReport(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	r := sampleReport("prod", models.SeverityStable, time.Now().UTC())
	require.NoError(t, s.SaveReport(ctx, r))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	got.Markdown = "mutated"

	again, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "# report", again.Markdown)
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := sampleReport("prod", models.SeverityWarning, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.SaveReport(ctx, r))
		ids = append(ids, r.ID)
	}

	reports, total, err := s.ListReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, reports, 3)
	assert.Equal(t, ids[2], reports[0].ID)
	assert.Equal(t, ids[0], reports[2].ID)
}

func TestMemoryStore_ListFilters(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(ctx, sampleReport("prod", models.SeverityCritical, base)))
	require.NoError(t, s.SaveReport(ctx, sampleReport("dev", models.SeverityStable, base.Add(time.Hour))))
	require.NoError(t, s.SaveReport(ctx, sampleReport("prod", models.SeverityStable, base.Add(2*time.Hour))))

	prod, total, err := s.ListReports(ctx, store.ReportFilter{Environment: "prod"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, prod, 2)

	critical, total, err := s.ListReports(ctx, store.ReportFilter{Severity: "CRITICAL"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, critical, 1)
	assert.Equal(t, models.SeverityCritical, critical[0].Severity)

	recent, total, err := s.ListReports(ctx, store.ReportFilter{Since: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, recent, 2)
}

func TestMemoryStore_ListPaging(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveReport(ctx, sampleReport("prod", models.SeverityStable, base.Add(time.Duration(i)*time.Minute))))
	}

	page1, total, err := s.ListReports(ctx, store.ReportFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)

	page3, total, err := s.ListReports(ctx, store.ReportFilter{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page3, 1)

	beyond, total, err := s.ListReports(ctx, store.ReportFilter{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, beyond)
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			r := sampleReport(fmt.Sprintf("env-%d", i), models.SeverityStable, time.Now().UTC())
			done <- s.SaveReport(ctx, r)
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	_, total, err := s.ListReports(ctx, store.ReportFilter{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}
