// Package footprint implements the cost-and-estimates pipeline: raw request
// validation, per-line-item energy and carbon estimation, the estimate
// cache, and time-bucketed aggregation.
package footprint

import (
	"strconv"
	"time"

	"carbonview/internal/types"
)

// DateLayout is the calendar date format accepted by the footprint API.
const DateLayout = "2006-01-02"

// EstimationRequest is a fully validated footprint query. It is only ever
// produced by ValidateRawRequest.
type EstimationRequest struct {
	Start          time.Time
	End            time.Time
	IgnoreCache    bool
	GroupBy        types.GroupBy
	Limit          int
	Skip           int
	CloudProviders []types.CloudProvider
	Accounts       []string
	Services       []string
	Regions        []string
	Tags           map[string]string
}

// ValidateRawRequest checks every field of the raw request and converts it
// into a typed EstimationRequest. All violations are reported as footprint
// validation errors whose messages are surfaced verbatim to the caller.
func ValidateRawRequest(raw types.FootprintRawRequest) (*EstimationRequest, error) {
	if raw.StartDate == "" {
		return nil, types.NewFootprintValidationError("Start date is required")
	}
	if raw.EndDate == "" {
		return nil, types.NewFootprintValidationError("End date is required")
	}

	start, err := time.ParseInLocation(DateLayout, raw.StartDate, time.UTC)
	if err != nil {
		return nil, types.NewFootprintValidationError("Start date is not in a recognized YYYY-MM-DD format")
	}
	end, err := time.ParseInLocation(DateLayout, raw.EndDate, time.UTC)
	if err != nil {
		return nil, types.NewFootprintValidationError("End date is not in a recognized YYYY-MM-DD format")
	}

	if start.After(end) {
		return nil, types.NewFootprintValidationError("Start date is after end date")
	}
	if start.After(time.Now().UTC()) {
		return nil, types.NewFootprintValidationError("Start date is in the future")
	}

	req := &EstimationRequest{
		Start:    start,
		End:      end,
		Accounts: raw.Accounts,
		Services: raw.Services,
		Regions:  raw.Regions,
		Tags:     raw.Tags,
	}

	if raw.IgnoreCache != "" {
		ignore, err := strconv.ParseBool(raw.IgnoreCache)
		if err != nil {
			return nil, types.NewFootprintValidationError("IgnoreCache must be true or false")
		}
		req.IgnoreCache = ignore
	}

	if !types.IsValidGroupBy(raw.GroupBy) {
		return nil, types.NewFootprintValidationError("GroupBy period must be one of day, week, month, quarter or year")
	}
	req.GroupBy = types.GroupBy(raw.GroupBy)

	if raw.Limit != "" {
		limit, err := strconv.Atoi(raw.Limit)
		if err != nil || limit < 0 {
			return nil, types.NewFootprintValidationError("Limit must be a non-negative integer")
		}
		req.Limit = limit
	}
	if raw.Skip != "" {
		skip, err := strconv.Atoi(raw.Skip)
		if err != nil || skip < 0 {
			return nil, types.NewFootprintValidationError("Skip must be a non-negative integer")
		}
		req.Skip = skip
	}

	for _, p := range raw.CloudProviders {
		provider := types.CloudProvider(p)
		if !types.IsKnownProvider(provider) {
			return nil, types.NewFootprintValidationError("Cloud provider " + p + " is not supported")
		}
		req.CloudProviders = append(req.CloudProviders, provider)
	}

	return req, nil
}
