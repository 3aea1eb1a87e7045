package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/y0nigt/pacer/pkg/pacer"
)

// Throttle provides HTTP middleware that paces requests through a
// sliding-window limiter. Unlike a deny-style rate limiter it never
// rejects on its own: requests wait for window room and proceed, so the
// only failure mode is the client giving up while queued.
type Throttle struct {
	limiter *pacer.Limiter
}

// NewThrottle creates throttling middleware over the given limiter
func NewThrottle(limiter *pacer.Limiter) *Throttle {
	return &Throttle{limiter: limiter}
}

// Middleware wraps an http.Handler so each request runs inside the
// limiter's acquisition scope. The wait respects the request context; a
// client that disconnects while queued gets 503 and leaves no trace in
// the window.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		def := t.limiter.Definition()

		w.Header().Set("X-Throttle-Namespace", def.Namespace)
		w.Header().Set("X-Throttle-Action", def.Action)
		w.Header().Set("X-Throttle-Burst", fmt.Sprintf("%d", t.limiter.Burst()))
		w.Header().Set("X-Throttle-Window", fmt.Sprintf("%.3f", t.limiter.Window()))

		err := t.limiter.DoContext(r.Context(), func(_ context.Context) error {
			next.ServeHTTP(w, r)
			return nil
		})
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "throttle_wait_canceled",
				"message": "Request canceled while waiting for window room.",
			})
			return
		}
	})
}
