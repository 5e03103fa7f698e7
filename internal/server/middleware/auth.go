package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
)

// AuthConfig is shared with the server so a config reload can swap
// credentials without rebuilding the handler chain.
type AuthConfig struct {
	mu       sync.RWMutex
	Enabled  bool
	User     string
	Password string
}

func (c *AuthConfig) Update(enabled bool, user, password string) {
	c.mu.Lock()
	c.Enabled = enabled
	c.User = user
	c.Password = password
	c.mu.Unlock()
}

func (c *AuthConfig) get() (enabled bool, user, password string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Enabled, c.User, c.Password
}

// Auth enforces HTTP Basic credentials. Excluded paths ending in "*" match
// by prefix. CORS preflight requests always pass.
func Auth(config *AuthConfig, excludePaths ...string) Middleware {
	exact := make(map[string]bool)
	var prefixes []string

	for _, path := range excludePaths {
		if p, ok := strings.CutSuffix(path, "*"); ok {
			prefixes = append(prefixes, p)
		} else {
			exact[path] = true
		}
	}

	excluded := func(path string) bool {
		if exact[path] {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			enabled, wantUser, wantPass := config.get()

			if !enabled || r.Method == http.MethodOptions || excluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="hostwatch"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
