package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueryKey derives a stable cache key for a Loki range query from the
// tenant, the query string, and the time window.
func QueryKey(orgID, query string, start, end time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%d\n%d", query, start.UnixNano(), end.UnixNano())
	return fmt.Sprintf("loki:query:%s:%s", orgID, hex.EncodeToString(h.Sum(nil)[:16]))
}

// ReportKey caches a rendered report by archive ID.
func ReportKey(id uuid.UUID) string {
	return fmt.Sprintf("report:%s", id)
}

// RateLimitKey scopes serve-mode rate-limit counters.
func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
