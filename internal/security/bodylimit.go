package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/nyota-labs/backend-fuel/internal/common"
)

// BodyLimit caps request payload sizes. Quote and reservation bodies are a
// few hundred bytes, so anything near the cap is hostile or broken.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized requests with 413 and replaces the body with
// the buffered copy so downstream decoders read from memory.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength != -1 && r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds the limit", nil)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, b.Max+1))
		if err != nil && !errors.Is(err, io.EOF) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body could not be read", nil)
			return
		}
		_ = r.Body.Close()
		if int64(len(body)) > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds the limit", nil)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}
