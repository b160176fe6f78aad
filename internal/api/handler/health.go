package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/lokiscope/lokiscope/internal/api/response"
	"github.com/lokiscope/lokiscope/internal/cache"
	"github.com/lokiscope/lokiscope/internal/loki"
	"github.com/lokiscope/lokiscope/internal/store"
)

type healthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// NewHealthHandler returns the handler for GET /api/v1/health. Nil
// dependencies report as disabled rather than unhealthy.
func NewHealthHandler(s store.Store, c cache.Cache, l loki.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Components: map[string]string{}}
		check := func(name string, ping func(context.Context) error) {
			if ping == nil {
				status.Components[name] = "disabled"
				return
			}
			if err := ping(ctx); err != nil {
				status.Components[name] = "unhealthy: " + err.Error()
				status.Status = "degraded"
				return
			}
			status.Components[name] = "ok"
		}

		if s != nil {
			check("store", s.Ping)
		} else {
			check("store", nil)
		}
		if c != nil {
			check("cache", c.Ping)
		} else {
			check("cache", nil)
		}
		if l != nil {
			check("loki", l.Ready)
		} else {
			check("loki", nil)
		}

		response.JSON(w, status)
	}
}
