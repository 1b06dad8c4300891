package middleware

import (
	"net/http"

	"github.com/stckr/qr-server-go/internal/audit"
	"github.com/stckr/qr-server-go/internal/util"
)

// AdminTokenMiddleware guards the provisioning surface (mint/purge) with a
// static token. There is no admin UI here; batch tooling calls these
// endpoints directly.
type AdminTokenMiddleware struct {
	token string
}

func NewAdminTokenMiddleware(token string) *AdminTokenMiddleware {
	return &AdminTokenMiddleware{token: token}
}

func (m *AdminTokenMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "Not found",
			})
			return
		}

		provided := extractToken(r)
		if provided == "" || !util.ConstantTimeEqual(provided, m.token) {
			audit.LogFromRequest(r, audit.Event{
				Type: audit.EventAdminAuthFailure,
				Details: map[string]interface{}{
					"path": r.URL.Path,
				},
			})
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid admin token",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
