package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_Disabled(t *testing.T) {
	handler := CORS(CORSConfig{Enabled: false})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS headers, got %q", got)
	}
}

func TestCORS_AnyOrigin(t *testing.T) {
	handler := CORS(CORSConfig{Enabled: true})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.test")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

func TestCORS_AllowList(t *testing.T) {
	handler := CORS(CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"http://localhost:3000"},
	})(okHandler())

	tests := []struct {
		name       string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed simple request", "http://localhost:3000", http.MethodGet, "http://localhost:3000", http.StatusOK},
		{"allowed preflight", "http://localhost:3000", http.MethodOptions, "http://localhost:3000", http.StatusNoContent},
		{"foreign simple request", "http://evil.test", http.MethodGet, "", http.StatusOK},
		{"foreign preflight", "http://evil.test", http.MethodOptions, "", http.StatusForbidden},
		{"no origin", "", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/anomalies", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected allow-origin %q, got %q", tt.wantOrigin, got)
			}
			if tt.wantStatus == http.StatusNoContent && w.Header().Get("Access-Control-Max-Age") != "3600" {
				t.Errorf("expected default max age 3600, got %q", w.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}
