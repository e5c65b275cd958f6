package emissions

import (
	"context"
	"log/slog"

	"carbonview/internal/types"
)

// IntensitySource supplies live grid carbon intensity in grams CO2e per kWh
// for an electricity-grid zone. Satisfied by external.GridIntensityClient.
type IntensitySource interface {
	Intensity(ctx context.Context, zone string) (float64, error)
}

// Service is the emissions-factor accessor behind the
// /regions/emissions-factors endpoint. When a live IntensitySource is
// configured, factors for regions with a zone mapping are refreshed from it;
// any live lookup failure falls back silently to the static table.
type Service struct {
	source IntensitySource // nil means static factors only
	logger *slog.Logger
}

// NewService creates an emissions Service. source may be nil to serve the
// static table only.
func NewService(source IntensitySource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		logger: logger,
	}
}

// GetEmissionsFactors returns the emissions factor for every known cloud
// region, in metric tons CO2e per kWh.
func (s *Service) GetEmissionsFactors(ctx context.Context) ([]types.EmissionsFactor, error) {
	factors := AllFactors()
	if s.source == nil {
		return factors, nil
	}

	for i, f := range factors {
		zone := Zone(f.Provider, f.Region)
		if zone == "" {
			continue
		}
		grams, err := s.source.Intensity(ctx, zone)
		if err != nil {
			s.logger.Warn("live grid intensity lookup failed, using static factor",
				"provider", string(f.Provider),
				"region", f.Region,
				"zone", zone,
				"error", err,
			)
			continue
		}
		// Upstream reports grams per kWh; factors are metric tons per kWh.
		factors[i].MtPerKwHour = grams / 1e6
	}

	return factors, nil
}

// IntensityOrStatic returns the grid intensity for a region in grams CO2e
// per kWh, preferring the live source when one is configured and mapped.
// Used by the footprint estimator.
func (s *Service) IntensityOrStatic(ctx context.Context, provider types.CloudProvider, region string) float64 {
	if s.source != nil {
		if zone := Zone(provider, region); zone != "" {
			if grams, err := s.source.Intensity(ctx, zone); err == nil {
				return grams
			}
		}
	}
	return Factor(provider, region) * 1e6
}
