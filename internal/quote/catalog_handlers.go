package quote

import (
	"net/http"

	"github.com/nyota-labs/backend-fuel/internal/common"
)

// Zones handles GET /api/v1/delivery/zones. The zone table is static per
// deployment so clients can cache it aggressively.
func (h *Handler) Zones(w http.ResponseWriter, _ *http.Request) {
	if h == nil || h.Svc == nil || h.Svc.Delivery == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "delivery calculator not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Delivery.Zones()})
}

// Tiers handles GET /api/v1/pricing/tiers.
func (h *Handler) Tiers(w http.ResponseWriter, _ *http.Request) {
	if h == nil || h.Svc == nil || h.Svc.Discounts == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount engine not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Discounts.Tiers()})
}
