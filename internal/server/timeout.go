package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds a webhook run: the engine, classifier and Send
// API calls all inherit the deadline and fail once it passes. The session
// save after delivery runs on a detached context and is bounded by its own
// persist timeout instead. A non-positive timeout leaves the context
// untouched.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
