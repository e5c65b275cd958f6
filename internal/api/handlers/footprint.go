// Package handlers contains the HTTP handler implementations for the
// carbonview API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"carbonview/internal/config"
	"carbonview/internal/core"
	"carbonview/internal/footprint"
	"carbonview/internal/types"
)

// FootprintServiceInterface defines the service contract for the footprint
// handler. Matches the footprint package's Service but is defined locally
// to avoid tight coupling per the handler injection pattern.
type FootprintServiceInterface interface {
	GetCostAndEstimates(ctx context.Context, req *footprint.EstimationRequest) ([]types.EstimationResult, error)
}

// FootprintHandler maps HTTP requests to footprint estimation calls.
type FootprintHandler struct {
	service        FootprintServiceInterface
	groupByDefault string
	routeTimeout   time.Duration
	logger         *slog.Logger
}

// NewFootprintHandler creates a FootprintHandler. Configuration is threaded
// in explicitly; handlers hold their own copy of the values they need.
func NewFootprintHandler(
	svc FootprintServiceInterface,
	cfg *config.Config,
	logger *slog.Logger,
) *FootprintHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FootprintHandler{
		service:        svc,
		groupByDefault: cfg.Footprint.GroupByDefault,
		routeTimeout:   cfg.Server.FootprintTimeout,
		logger:         logger,
	}
}

// RegisterRoutes mounts the footprint endpoint onto the mux.
func (h *FootprintHandler) RegisterRoutes(r chi.Router) {
	r.Get("/footprint", h.HandleGetFootprint)
}

// HandleGetFootprint handles GET /footprint.
//  1. Extend the connection write deadline; estimation over a long date
//     range can exceed the server default.
//  2. Parse query params into the raw request, defaulting groupBy.
//  3. Validate, estimate, and return the results as JSON.
func (h *FootprintHandler) HandleGetFootprint(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(h.routeTimeout)); err != nil {
		h.logger.Warn("failed to extend response write deadline",
			slog.String("error", err.Error()),
		)
	}

	q := r.URL.Query()
	raw := types.FootprintRawRequest{
		StartDate:      q.Get("start"),
		EndDate:        q.Get("end"),
		IgnoreCache:    q.Get("ignoreCache"),
		GroupBy:        q.Get("groupBy"),
		Limit:          q.Get("limit"),
		Skip:           q.Get("skip"),
		CloudProviders: q["cloudProviders"],
		Accounts:       q["accounts"],
		Services:       q["services"],
		Regions:        q["regions"],
		Tags:           parseTagParams(q),
	}

	if raw.GroupBy == "" {
		h.logger.Warn("groupBy not specified, using default",
			slog.String("groupBy", h.groupByDefault),
			slog.String("request_id", types.GetRequestID(r.Context())),
		)
		raw.GroupBy = h.groupByDefault
	}

	req, err := footprint.ValidateRawRequest(raw)
	if err != nil {
		h.logError(r, "footprint request validation failed", err)
		core.Error(w, r, err)
		return
	}

	results, err := h.service.GetCostAndEstimates(r.Context(), req)
	if err != nil {
		h.logError(r, "footprint estimation failed", err)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, results)
}

func (h *FootprintHandler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("request_id", types.GetRequestID(r.Context())),
	)
}

// parseTagParams extracts tag filters from query keys of the form
// tags[<key>]=<value>. Returns nil when no tag params are present.
func parseTagParams(q url.Values) map[string]string {
	var tags map[string]string
	for key, vals := range q {
		if !strings.HasPrefix(key, "tags[") || !strings.HasSuffix(key, "]") {
			continue
		}
		name := key[len("tags[") : len(key)-1]
		if name == "" || len(vals) == 0 {
			continue
		}
		if tags == nil {
			tags = make(map[string]string)
		}
		tags[name] = vals[0]
	}
	return tags
}
