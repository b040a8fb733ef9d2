// ABOUTME: Bearer token middleware guarding the /api routes.
// ABOUTME: The health endpoint stays open so liveness checks work without credentials.
package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware rejects /api requests that don't carry "Bearer <token>".
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	expected := "Bearer " + token
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path != "/api" && !strings.HasPrefix(path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(auth), []byte(expected)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		})
	}
}
