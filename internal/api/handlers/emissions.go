package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carbonview/internal/core"
	"carbonview/internal/types"
)

// EmissionsServiceInterface defines the service contract for the emissions
// factors handler.
type EmissionsServiceInterface interface {
	GetEmissionsFactors(ctx context.Context) ([]types.EmissionsFactor, error)
}

// EmissionsHandler serves the per-region emissions factor listing.
type EmissionsHandler struct {
	service EmissionsServiceInterface
	logger  *slog.Logger
}

// NewEmissionsHandler creates an EmissionsHandler.
func NewEmissionsHandler(svc EmissionsServiceInterface, logger *slog.Logger) *EmissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmissionsHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the emissions factor endpoint onto the mux.
func (h *EmissionsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/regions/emissions-factors", h.HandleGetEmissionsFactors)
}

// HandleGetEmissionsFactors handles GET /regions/emissions-factors. The
// route takes no parameters; any failure maps to a generic 500.
func (h *EmissionsHandler) HandleGetEmissionsFactors(w http.ResponseWriter, r *http.Request) {
	factors, err := h.service.GetEmissionsFactors(r.Context())
	if err != nil {
		h.logger.Error("emissions factors lookup failed",
			slog.String("error", err.Error()),
			slog.String("request_id", types.GetRequestID(r.Context())),
		)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, factors)
}
