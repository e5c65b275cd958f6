package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"carbonview/internal/types"
)

// gridIntensityCacheTTL bounds how long a fetched zone intensity is reused
// before the upstream is consulted again.
const gridIntensityCacheTTL = 15 * time.Minute

// GridIntensityClient fetches live grid carbon intensity for cloud regions
// from an Electricity-Maps-style API. Responses are cached per zone; on any
// upstream failure callers are expected to fall back to static factors.
type GridIntensityClient struct {
	base    *Client
	baseURL string
	apiKey  string

	mu    sync.RWMutex
	cache map[string]cachedIntensity
}

type cachedIntensity struct {
	gramsPerKwh float64
	expiresAt   time.Time
}

// intensityResponse is the upstream JSON payload.
type intensityResponse struct {
	Zone            string  `json:"zone"`
	CarbonIntensity float64 `json:"carbonIntensity"` // gCO2e per kWh
}

// NewGridIntensityClient creates a grid intensity client. baseURL is the
// upstream root (no trailing slash); apiKey may be empty for unauthenticated
// endpoints.
func NewGridIntensityClient(base *Client, baseURL, apiKey string) *GridIntensityClient {
	return &GridIntensityClient{
		base:    base,
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   make(map[string]cachedIntensity),
	}
}

// Intensity returns the grid carbon intensity for the given electricity
// zone, in grams CO2e per kWh.
func (c *GridIntensityClient) Intensity(ctx context.Context, zone string) (float64, error) {
	c.mu.RLock()
	cached, ok := c.cache[zone]
	c.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.gramsPerKwh, nil
	}

	u := fmt.Sprintf("%s/v3/carbon-intensity/latest?zone=%s", c.baseURL, url.QueryEscape(zone))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build grid intensity request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("auth-token", c.apiKey)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("grid intensity upstream returned %d for zone %s", resp.StatusCode, zone),
			nil,
		)
	}

	var payload intensityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, types.NewAppError(types.ErrCodeUpstreamUnavailable, "failed to decode grid intensity response", err)
	}

	c.mu.Lock()
	c.cache[zone] = cachedIntensity{
		gramsPerKwh: payload.CarbonIntensity,
		expiresAt:   time.Now().Add(gridIntensityCacheTTL),
	}
	c.mu.Unlock()

	return payload.CarbonIntensity, nil
}
