package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lokiscope/lokiscope/internal/api/response"
	"github.com/lokiscope/lokiscope/internal/cache"
	"github.com/lokiscope/lokiscope/internal/store"
	"github.com/lokiscope/lokiscope/pkg/models"
)

// NewListReportsHandler returns the handler for GET /api/v1/reports.
// Supported query params: environment, severity, since (RFC3339),
// page, limit.
func NewListReportsHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := store.ReportFilter{
			Environment: q.Get("environment"),
			Severity:    q.Get("severity"),
		}
		if since := q.Get("since"); since != "" {
			t, err := time.Parse(time.RFC3339, since)
			if err != nil {
				response.Error(w, http.StatusBadRequest,
					"INVALID_REQUEST", "since must be a valid RFC3339 timestamp")
				return
			}
			filter.Since = t
		}
		filter.Page, _ = strconv.Atoi(q.Get("page"))
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))
		if filter.Page < 1 {
			filter.Page = 1
		}
		if filter.Limit < 1 {
			filter.Limit = 20
		}

		reports, total, err := s.ListReports(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to list reports")
			return
		}

		response.Collection(w, reports, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

// NewGetReportHandler returns the handler for GET /api/v1/reports/{reportID}.
// Archived reports are immutable, so a non-nil cache serves repeat
// reads without touching the store.
func NewGetReportHandler(s store.Store, c cache.Cache, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "reportID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "reportID must be a valid UUID")
			return
		}

		key := cache.ReportKey(id)
		if c != nil {
			if raw, ok, err := c.Get(r.Context(), key); err == nil && ok {
				var cached models.Report
				if err := json.Unmarshal(raw, &cached); err == nil {
					response.JSON(w, &cached)
					return
				}
			}
		}

		report, err := s.GetReport(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound,
				"NOT_FOUND", "Report not found")
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to fetch report")
			return
		}

		if c != nil {
			if raw, err := json.Marshal(report); err == nil {
				if err := c.Set(r.Context(), key, raw, ttl); err != nil {
					slog.Warn("cache report", "id", id, "error", err)
				}
			}
		}

		response.JSON(w, report)
	}
}
