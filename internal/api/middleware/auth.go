package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lokiscope/lokiscope/internal/api/response"
)

// Auth validates Bearer tokens against a single bcrypt hash configured
// at startup. An empty hash disables authentication entirely.
type Auth struct {
	tokenHash string
}

// NewAuth creates the auth middleware. tokenHash is a bcrypt hash of
// the expected API token; empty means open access.
func NewAuth(tokenHash string) *Auth {
	return &Auth{tokenHash: tokenHash}
}

// Authenticate rejects requests whose Bearer token does not match the
// configured hash.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.tokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(a.tokenHash), []byte(token)) != nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
