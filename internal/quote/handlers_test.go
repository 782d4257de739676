package quote_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/prices"
	"github.com/nyota-labs/backend-fuel/internal/quote"
)

func newHandler(t *testing.T) *quote.Handler {
	t.Helper()
	svc, resolver := newService(t)
	resolver.Set(fuel.PMS, "depot-industrial-a", prices.BasePrice{Price: 18_452, EffectiveDate: time.Now()})
	return &quote.Handler{Svc: svc, Validate: validator.New()}
}

func postQuote(t *testing.T, h *quote.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)
	return rec
}

func TestQuoteEndpoint(t *testing.T) {
	h := newHandler(t)
	rec := postQuote(t, h, `{"fuelType":"PMS","volume":5000,"locationId":"depot-industrial-a","zone":"cbd"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data quote.Breakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(87_647_000), int64(resp.Data.Total))
	require.Equal(t, "Medium Bulk", resp.Data.DiscountTier)
}

func TestQuoteEndpointErrorMapping(t *testing.T) {
	h := newHandler(t)
	cases := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"malformed body", `{`, http.StatusBadRequest, "INVALID_BODY"},
		{"missing fields", `{"fuelType":"PMS"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown fuel", `{"fuelType":"LPG","volume":100,"locationId":"depot-industrial-a","zone":"cbd"}`, http.StatusBadRequest, "UNKNOWN_FUEL_TYPE"},
		{"unknown urgency", `{"fuelType":"PMS","volume":100,"locationId":"depot-industrial-a","zone":"cbd","urgency":"same-day"}`, http.StatusBadRequest, "UNKNOWN_URGENCY"},
		{"unknown zone", `{"fuelType":"PMS","volume":100,"locationId":"depot-industrial-a","zone":"atlantis"}`, http.StatusBadRequest, "UNKNOWN_ZONE"},
		{"no published price", `{"fuelType":"AGO","volume":100,"locationId":"depot-industrial-a","zone":"cbd"}`, http.StatusNotFound, "PRICE_NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postQuote(t, h, tc.body)
			require.Equal(t, tc.wantCode, rec.Code)
			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tc.wantErr, resp.Error.Code)
		})
	}
}

func TestNextTierEndpoint(t *testing.T) {
	h := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/next-tier?volume=800", nil)
	rec := httptest.NewRecorder()
	h.NextTier(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			TierName         string `json:"tierName"`
			AdditionalVolume int64  `json:"additionalVolume"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Small Bulk", resp.Data.TierName)
	require.Equal(t, int64(200), resp.Data.AdditionalVolume)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/quotes/next-tier?volume=abc", nil)
	rec = httptest.NewRecorder()
	h.NextTier(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Top tier gets an explicit null hint.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/quotes/next-tier?volume=30000", nil)
	rec = httptest.NewRecorder()
	h.NextTier(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":null}`, rec.Body.String())
}
