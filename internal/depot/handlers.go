package depot

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyota-labs/backend-fuel/internal/common"
)

// Handler exposes read-only depot endpoints.
type Handler struct {
	Repo Repo
}

// List handles GET /api/v1/locations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Repo.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list depots", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": locations})
}

// Get handles GET /api/v1/locations/{locationID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	loc, err := h.Repo.Get(r.Context(), chi.URLParam(r, "locationID"))
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load depot", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": loc})
}
