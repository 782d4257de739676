package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nyota-labs/backend-fuel/internal/common"
)

// Guard limits how often a single client can hit the endpoints it wraps.
// Quote generation hits the price store and both pricing tables, so it is the
// main surface worth guarding.
type Guard struct {
	Window  SlidingWindow
	Key     func(*http.Request) string
	Period  time.Duration
	Max     int
	OnError func(error)
}

// Middleware enforces the limit. Redis trouble fails open: throttling is a
// protection, not a dependency the API should die on.
func (g Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := g.Window.Take(r.Context(), g.Key(r), g.Period, g.Max)
		if err != nil {
			if g.OnError != nil {
				g.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		limit := g.Max
		if limit < 0 {
			limit = 0
		}
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
