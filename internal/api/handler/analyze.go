// Package handler implements the serve-mode HTTP endpoints.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/lokiscope/lokiscope/internal/api/response"
	"github.com/lokiscope/lokiscope/internal/runner"
)

// BatchAnalyzer runs one analysis over a raw batch body.
type BatchAnalyzer interface {
	AnalyzeReader(ctx context.Context, rd io.Reader, archive bool) (*runner.Output, error)
}

// maxBatchBytes caps the request body at 64 MiB.
const maxBatchBytes = 64 << 20

// NewAnalyzeHandler returns the handler for POST /api/v1/analyze. The
// body is a raw log batch, NDJSON or JSON array; ?archive=true also
// persists the rendered report when an archive store is configured.
func NewAnalyzeHandler(svc BatchAnalyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		archive := r.URL.Query().Get("archive") == "true"

		body := http.MaxBytesReader(w, r.Body, maxBatchBytes)
		out, err := svc.AnalyzeReader(r.Context(), body, archive)
		if err != nil {
			slog.Error("analyze request failed", "error", err)
			response.Error(w, http.StatusUnprocessableEntity,
				"ANALYSIS_FAILED", err.Error())
			return
		}

		if out.Report != nil {
			response.Created(w, out)
			return
		}
		response.JSON(w, out)
	}
}
