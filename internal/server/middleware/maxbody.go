package middleware

import (
	"net/http"
)

// MaxBodySize caps request bodies. The only bodies the API accepts are
// small settings values.
const MaxBodySize = 64 << 10

// MaxBody limits PUT and POST bodies to maxSize bytes, or MaxBodySize when
// maxSize is not positive.
func MaxBody(maxSize int64) Middleware {
	if maxSize <= 0 {
		maxSize = MaxBodySize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut {
				if r.ContentLength > maxSize {
					writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}
