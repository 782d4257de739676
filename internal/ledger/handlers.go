package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nyota-labs/backend-fuel/internal/common"
	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/lock"
)

// Handler exposes the reservation and stock endpoints.
// Lock, when set, serialises restocks for the same tank across instances.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Lock     *lock.Locker
	LockTTL  time.Duration
}

type reserveRequest struct {
	LocationID string `json:"locationId" validate:"required"`
	FuelType   string `json:"fuelType" validate:"required"`
	Volume     int64  `json:"volume" validate:"required,gt=0"`
}

type restockRequest struct {
	LocationID string `json:"locationId" validate:"required"`
	FuelType   string `json:"fuelType" validate:"required"`
	Volume     int64  `json:"volume" validate:"required,gt=0"`
}

// Reserve handles POST /api/v1/reservations.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	var req reserveRequest
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
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_FUEL_TYPE", "fuel type must be one of PMS, AGO, IK", nil)
		return
	}
	res, err := h.Svc.Reserve(r.Context(), req.LocationID, fuelType, req.Volume)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": res})
}

// Commit handles POST /api/v1/reservations/{id}/commit.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	h.finalize(w, r, func(id uuid.UUID) (Reservation, error) {
		return h.Svc.Commit(r.Context(), id)
	})
}

// Release handles POST /api/v1/reservations/{id}/release.
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	h.finalize(w, r, func(id uuid.UUID) (Reservation, error) {
		return h.Svc.Release(r.Context(), id)
	})
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request, op func(uuid.UUID) (Reservation, error)) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_RESERVATION_ID", "reservation id must be a uuid", nil)
		return
	}
	res, err := op(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

// Restock handles POST /api/v1/admin/stock/restock.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	var req restockRequest
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
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_FUEL_TYPE", "fuel type must be one of PMS, AGO, IK", nil)
		return
	}
	snapshot, err := h.restock(r.Context(), req.LocationID, fuelType, req.Volume)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			common.JSONError(w, http.StatusServiceUnavailable, "CONCURRENT_UPDATE", "another restock holds the tank lock, retry the request", nil)
			return
		}
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snapshot})
}

// restock runs the delivery under the per-tank lock when one is configured.
func (h *Handler) restock(ctx context.Context, locationID string, fuelType fuel.Type, volume int64) (Snapshot, error) {
	if h.Lock == nil {
		return h.Svc.Restock(ctx, locationID, fuelType, volume)
	}
	var snapshot Snapshot
	err := h.Lock.WithLock(ctx, restockLockKey(locationID, fuelType), h.LockTTL, func(ctx context.Context) error {
		var err error
		snapshot, err = h.Svc.Restock(ctx, locationID, fuelType, volume)
		return err
	})
	return snapshot, err
}

func restockLockKey(locationID string, fuelType fuel.Type) string {
	return "restock:" + locationID + ":" + string(fuelType)
}

// StockStatus handles GET /api/v1/stock/{locationID}/{fuelType}.
func (h *Handler) StockStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	fuelType, err := fuel.Parse(chi.URLParam(r, "fuelType"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_FUEL_TYPE", "fuel type must be one of PMS, AGO, IK", nil)
		return
	}
	snapshot, err := h.Svc.Status(r.Context(), chi.URLParam(r, "locationID"), fuelType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snapshot})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidVolume):
		common.JSONError(w, http.StatusBadRequest, "INVALID_VOLUME", "volume must be greater than zero", nil)
	case errors.Is(err, ErrUnknownStockRecord):
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_STOCK_RECORD", "no stock record for that depot and fuel type", nil)
	case errors.Is(err, ErrInsufficientStock):
		// A business outcome, not a failure: the pool simply cannot cover the ask.
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", "not enough available stock to reserve", nil)
	case errors.Is(err, ErrCapacityExceeded):
		common.JSONError(w, http.StatusConflict, "CAPACITY_EXCEEDED", "restock would exceed tank capacity", nil)
	case errors.Is(err, ErrUnknownReservation):
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_RESERVATION", "reservation does not exist", nil)
	case errors.Is(err, ErrReservationFinalized):
		common.JSONError(w, http.StatusConflict, "RESERVATION_FINALIZED", "reservation was already committed or released", nil)
	case errors.Is(err, ErrConcurrentUpdate):
		common.JSONError(w, http.StatusServiceUnavailable, "CONCURRENT_UPDATE", "the stock record is contended, retry the request", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger operation failed", nil)
	}
}
