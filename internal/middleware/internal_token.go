package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireInternalToken guards operator-only routes with a shared secret
// carried in X-Internal-Token. An empty configured token closes the route
// entirely rather than leaving it open.
func RequireInternalToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Internal-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
