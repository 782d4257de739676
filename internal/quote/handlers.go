package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	validator "github.com/go-playground/validator/v10"

	"github.com/nyota-labs/backend-fuel/internal/common"
	"github.com/nyota-labs/backend-fuel/internal/delivery"
	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/obs"
	"github.com/nyota-labs/backend-fuel/internal/prices"
	"github.com/nyota-labs/backend-fuel/internal/pricing"
)

// Handler exposes the quote endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type quoteRequest struct {
	FuelType   string `json:"fuelType" validate:"required"`
	Volume     int64  `json:"volume" validate:"required,gt=0"`
	LocationID string `json:"locationId" validate:"required"`
	Zone       string `json:"zone" validate:"required"`
	Urgency    string `json:"urgency"`
}

// Quote handles POST /api/v1/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid json", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
	}
	fuelType, err := fuel.Parse(req.FuelType)
	if err != nil {
		h.countQuote(req.FuelType, "unknown_fuel")
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_FUEL_TYPE", "fuel type must be one of PMS, AGO, IK", nil)
		return
	}
	urgency, err := delivery.ParseUrgency(req.Urgency)
	if err != nil {
		h.countQuote(req.FuelType, "unknown_urgency")
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_URGENCY", "urgency must be standard, express or emergency", nil)
		return
	}

	breakdown, err := h.Svc.Quote(r.Context(), Input{
		FuelType:   fuelType,
		Volume:     req.Volume,
		LocationID: req.LocationID,
		ZoneID:     req.Zone,
		Urgency:    urgency,
	})
	if err != nil {
		h.countQuote(req.FuelType, "error")
		h.writeError(w, err)
		return
	}
	h.countQuote(req.FuelType, "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdown})
}

// NextTier handles GET /api/v1/quotes/next-tier?volume=N.
func (h *Handler) NextTier(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	volume, err := strconv.ParseInt(r.URL.Query().Get("volume"), 10, 64)
	if err != nil || volume <= 0 {
		common.JSONError(w, http.StatusBadRequest, "INVALID_VOLUME", "volume must be a positive integer", nil)
		return
	}
	hint, err := h.Svc.NextTier(volume)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if hint == nil {
		common.JSON(w, http.StatusOK, map[string]any{"data": nil})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"tierName":         hint.Tier.Name,
		"rateBps":          hint.Tier.RateBps,
		"additionalVolume": hint.AdditionalVolume,
	}})
}

func (h *Handler) countQuote(fuelType, result string) {
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(fuelType, result).Inc()
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidVolume), errors.Is(err, delivery.ErrInvalidVolume):
		common.JSONError(w, http.StatusBadRequest, "INVALID_VOLUME", "volume must be greater than zero", nil)
	case errors.Is(err, delivery.ErrUnknownZone):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_ZONE", "destination zone is not configured", nil)
	case errors.Is(err, delivery.ErrUnknownUrgency):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_URGENCY", "urgency must be standard, express or emergency", nil)
	case errors.Is(err, fuel.ErrUnknownFuelType):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_FUEL_TYPE", "fuel type must be one of PMS, AGO, IK", nil)
	case errors.Is(err, prices.ErrPriceNotFound):
		common.JSONError(w, http.StatusNotFound, "PRICE_NOT_FOUND", "no published base price for that fuel type and depot", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute quote", nil)
	}
}
