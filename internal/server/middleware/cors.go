package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"time"
)

type CORSConfig struct {
	Enabled bool
	// AllowedOrigins empty means any origin.
	AllowedOrigins []string
	MaxAge         time.Duration
}

// CORS answers preflight requests itself and decorates the rest. Requests
// without an Origin header pass through untouched.
func CORS(config CORSConfig) Middleware {
	if !config.Enabled {
		return passthrough
	}
	if config.MaxAge <= 0 {
		config.MaxAge = time.Hour
	}
	maxAge := strconv.Itoa(int(config.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			switch {
			case len(config.AllowedOrigins) == 0:
				h.Set("Access-Control-Allow-Origin", "*")
			case slices.Contains(config.AllowedOrigins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
			default:
				if r.Method == http.MethodOptions {
					writeError(w, http.StatusForbidden, "origin not allowed")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
