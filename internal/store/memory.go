package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lokiscope/lokiscope/pkg/models"
)

// MemoryStore is an in-memory Store for tests and runs without a
// configured database. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*models.Report
	order   []uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[uuid.UUID]*models.Report)}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) SaveReport(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; exists {
		return ErrDuplicateKey
	}
	clone := *report
	s.reports[report.ID] = &clone
	s.order = append(s.order, report.ID)
	return nil
}

func (s *MemoryStore) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *MemoryStore) ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, int, error) {
	filter = filter.normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first: walk insertion order backwards.
	var matched []*models.Report
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.reports[s.order[i]]
		if filter.Environment != "" && r.Environment != filter.Environment {
			continue
		}
		if filter.Severity != "" && string(r.Severity) != filter.Severity {
			continue
		}
		if !filter.Since.IsZero() && r.CreatedAt.Before(filter.Since) {
			continue
		}
		matched = append(matched, r)
	}

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []*models.Report{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	page := make([]*models.Report, 0, end-start)
	for _, r := range matched[start:end] {
		clone := *r
		page = append(page, &clone)
	}
	return page, total, nil
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
