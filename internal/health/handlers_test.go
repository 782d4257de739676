package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nyota-labs/backend-fuel/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	health.Handler{}.Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name     string
		checker  stubChecker
		wantCode int
		wantDB   string
	}{
		{"all healthy", stubChecker{}, http.StatusOK, "ok"},
		{"db down", stubChecker{dbErr: errors.New("db down")}, http.StatusServiceUnavailable, "db down"},
		{"redis down", stubChecker{redisErr: errors.New("redis down")}, http.StatusServiceUnavailable, "ok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := health.Handler{Checker: tc.checker, DBTimeout: 50 * time.Millisecond, RedisTimeout: 50 * time.Millisecond}
			rec := httptest.NewRecorder()
			handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			var status map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if status["db"] != tc.wantDB {
				t.Fatalf("db status = %q, want %q", status["db"], tc.wantDB)
			}
		})
	}
}
