package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimit(t *testing.T) {
	var seen string
	wrapped := BodyLimit{Max: 16}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("within limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"v":1}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("got %d", rec.Code)
		}
		if seen != `{"v":1}` {
			t.Fatalf("handler read %q", seen)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("got %d, want 413", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "PAYLOAD_TOO_LARGE") {
			t.Fatalf("expected error envelope, got %s", rec.Body.String())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		BodyLimit{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
		if rec.Code != http.StatusOK {
			t.Fatalf("got %d", rec.Code)
		}
	})
}
