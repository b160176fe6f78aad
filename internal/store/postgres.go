package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveReport archives a finished report. The full analysis result is
// stored as JSONB alongside the rendered markdown.
func (s *PostgresStore) SaveReport(ctx context.Context, report *models.Report) error {
	result, err := json.Marshal(report.Result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (id, environment, title, severity, total_errors, range_start, range_end, result, markdown, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		report.ID, report.Environment, report.Title, report.Severity, report.TotalErrors,
		report.RangeStart, report.RangeEnd, result, report.Markdown, report.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// GetReport fetches one archived report by ID.
func (s *PostgresStore) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	var result []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, environment, title, severity, total_errors, range_start, range_end, result, markdown, created_at
		 FROM reports WHERE id = $1`, id,
	).Scan(&r.ID, &r.Environment, &r.Title, &r.Severity, &r.TotalErrors,
		&r.RangeStart, &r.RangeEnd, &result, &r.Markdown, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if err := json.Unmarshal(result, &r.Result); err != nil {
		return nil, fmt.Errorf("unmarshal analysis result: %w", err)
	}
	return &r, nil
}

// ListReports returns a filtered, newest-first page of archived
// reports plus the total match count. Listed reports omit the full
// analysis result payload.
func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, int, error) {
	filter = filter.normalize()

	where := " WHERE 1=1"
	args := []any{}
	arg := 1
	if filter.Environment != "" {
		where += fmt.Sprintf(" AND environment = $%d", arg)
		args = append(args, filter.Environment)
		arg++
	}
	if filter.Severity != "" {
		where += fmt.Sprintf(" AND severity = $%d", arg)
		args = append(args, filter.Severity)
		arg++
	}
	if !filter.Since.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", arg)
		args = append(args, filter.Since)
		arg++
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reports"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	query := `SELECT id, environment, title, severity, total_errors, range_start, range_end, markdown, created_at
		 FROM reports` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", arg, arg+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.Environment, &r.Title, &r.Severity, &r.TotalErrors,
			&r.RangeStart, &r.RangeEnd, &r.Markdown, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, &r)
	}
	return reports, total, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
