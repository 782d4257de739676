package common

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem rejects replays of write requests that carry an Idempotency-Key
// header. The first request claims the key in Redis; any repeat inside the
// TTL gets a 409 without reaching the handler.
type Idem struct {
	Client *redis.Client
	TTL    time.Duration
}

// Keys are hashed so arbitrary client input never lands in Redis verbatim.
func idemKey(header string) string {
	sum := sha256.Sum256([]byte(header))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency for the endpoints it wraps. Requests
// without the header pass through untouched.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.Client == nil {
			next.ServeHTTP(w, r)
			return
		}
		claimed, err := i.Client.SetNX(r.Context(), idemKey(header), "claimed", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
