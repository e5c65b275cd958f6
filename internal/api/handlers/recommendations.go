package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carbonview/internal/core"
	"carbonview/internal/recommendations"
	"carbonview/internal/types"
)

// RecommendationsServiceInterface defines the service contract for the
// recommendations handler.
type RecommendationsServiceInterface interface {
	GetRecommendations(ctx context.Context, target types.AWSRecommendationTarget) ([]types.Recommendation, error)
}

// RecommendationsHandler maps HTTP requests to rightsizing recommendation
// calls.
type RecommendationsHandler struct {
	service RecommendationsServiceInterface
	logger  *slog.Logger
}

// NewRecommendationsHandler creates a RecommendationsHandler.
func NewRecommendationsHandler(svc RecommendationsServiceInterface, logger *slog.Logger) *RecommendationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationsHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the recommendations endpoint onto the mux.
func (h *RecommendationsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/recommendations", h.HandleGetRecommendations)
}

// HandleGetRecommendations handles GET /recommendations.
//  1. Extract awsRecommendationTarget; absent defaults to
//     SAME_INSTANCE_FAMILY.
//  2. Validate, fetch recommendations, and return them as JSON.
func (h *RecommendationsHandler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	raw := types.RecommendationsRawRequest{
		AWSRecommendationTarget: r.URL.Query().Get("awsRecommendationTarget"),
	}

	target, err := recommendations.ValidateRawRequest(raw)
	if err != nil {
		h.logError(r, "recommendations request validation failed", err)
		core.Error(w, r, err)
		return
	}

	recs, err := h.service.GetRecommendations(r.Context(), target)
	if err != nil {
		h.logError(r, "recommendations lookup failed", err)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, recs)
}

func (h *RecommendationsHandler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("request_id", types.GetRequestID(r.Context())),
	)
}
