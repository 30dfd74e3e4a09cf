package middleware

import (
	"net/http"
)

// CacheControl keeps per-user API responses out of shared caches.
type CacheControl struct{}

func NewCacheControl() *CacheControl {
	return &CacheControl{}
}

// Apply sets cache headers based on the request path.
func (c *CacheControl) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isHealthCheckPath(r.URL.Path) {
			w.Header().Set("Cache-Control", "no-cache")
		} else {
			w.Header().Set("Cache-Control", "private, no-store")
			w.Header().Set("Pragma", "no-cache")
		}

		next.ServeHTTP(w, r)
	})
}

func isHealthCheckPath(path string) bool {
	switch path {
	case "/health", "/ready", "/live", "/metrics":
		return true
	}
	return false
}
