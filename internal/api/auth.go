package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"log"
	"net/http"
	"strings"
)

// AdminAuth guards operator routes (restart) behind a bearer token.
// With an empty token every request is refused; NewRouter does not mount
// the routes at all in that case.
type AdminAuth struct {
	digest []byte
}

// NewAdminAuth creates a guard for token.
func NewAdminAuth(token string) *AdminAuth {
	if token == "" {
		return &AdminAuth{}
	}
	sum := sha256.Sum256([]byte(token))
	return &AdminAuth{digest: sum[:]}
}

// Enabled reports whether a token is required.
func (a *AdminAuth) Enabled() bool {
	return a != nil && a.digest != nil
}

// Check validates the request's Authorization header.
func (a *AdminAuth) Check(r *http.Request) bool {
	if !a.Enabled() {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return false
	}
	sum := sha256.Sum256([]byte(token))
	return hmac.Equal(sum[:], a.digest)
}

// Middleware rejects requests without a valid token.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Check(r) {
			log.Printf("🔒 Admin request rejected from %s", GetClientIP(r))
			RecordConnectionRejected("auth")
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
