package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nyota-labs/backend-fuel/internal/common"
)

func TestIdemMiddleware(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hits := 0
	wrapped := common.Idem{Client: client, TTL: time.Minute}.Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			w.WriteHeader(http.StatusCreated)
		}))

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, send("order-42").Code)

	replay := send("order-42")
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Contains(t, replay.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, hits, "replay must not reach the handler")

	// A different key is a different request.
	require.Equal(t, http.StatusCreated, send("order-43").Code)

	// No header means no idempotency semantics.
	require.Equal(t, http.StatusCreated, send("").Code)
	require.Equal(t, http.StatusCreated, send("").Code)

	// Claims expire with the TTL.
	mr.FastForward(2 * time.Minute)
	require.Equal(t, http.StatusCreated, send("order-42").Code)
}
