package middlewares

import (
	"net/http"
)

// RequestSizeLimitMiddleware limits the size of request bodies
// maxRequestSize specifies the maximum request body size in bytes
//
// Reading past the limit fails with *http.MaxBytesError. A body whose declared length is
// already over the limit fails on the first read, so handlers report oversized requests
// in their own terms.
func RequestSizeLimitMiddleware(maxRequestSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxRequestSize {
				w.Header().Set("Connection", "close")
				r.Body = rejectedBody{limit: maxRequestSize}
			} else {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rejectedBody fails every read with the size limit it was rejected for
type rejectedBody struct {
	limit int64
}

func (b rejectedBody) Read([]byte) (int, error) {
	return 0, &http.MaxBytesError{Limit: b.limit}
}

func (b rejectedBody) Close() error {
	return nil
}
