// Package emissions owns grid carbon intensity data for cloud regions: a
// static per-provider table of emissions factors, the mapping from cloud
// regions to electricity-grid zones, and the accessor service behind the
// emissions-factors endpoint.
package emissions

import (
	"sort"

	"carbonview/internal/types"
)

// Static emissions factors in metric tons CO2e per kWh, keyed by region.
// Derived from published regional grid intensity data; regions backed by
// hydro or nuclear grids (Oregon, Paris, Stockholm) are visibly lower.
var awsFactors = map[string]float64{
	"us-east-1":      0.000383,
	"us-east-2":      0.000425,
	"us-west-1":      0.000233,
	"us-west-2":      0.000078,
	"eu-west-1":      0.000316,
	"eu-west-2":      0.000228,
	"eu-west-3":      0.000051,
	"eu-central-1":   0.000338,
	"eu-north-1":     0.000008,
	"ap-northeast-1": 0.000471,
	"ap-southeast-1": 0.000408,
	"ap-southeast-2": 0.000656,
	"ap-south-1":     0.000708,
	"sa-east-1":      0.000074,
	"ca-central-1":   0.000120,
}

var gcpFactors = map[string]float64{
	"us-central1":          0.000454,
	"us-east1":             0.000382,
	"us-west1":             0.000078,
	"us-west2":             0.000190,
	"europe-west1":         0.000167,
	"europe-west2":         0.000228,
	"europe-west3":         0.000338,
	"europe-north1":        0.000086,
	"asia-east1":           0.000509,
	"asia-northeast1":      0.000471,
	"asia-southeast1":      0.000408,
	"australia-southeast1": 0.000656,
	"southamerica-east1":   0.000074,
}

var azureFactors = map[string]float64{
	"eastus":        0.000383,
	"eastus2":       0.000383,
	"westus":        0.000233,
	"westus2":       0.000078,
	"centralus":     0.000454,
	"northeurope":   0.000316,
	"westeurope":    0.000390,
	"uksouth":       0.000228,
	"francecentral": 0.000051,
	"japaneast":     0.000471,
	"australiaeast": 0.000656,
	"brazilsouth":   0.000074,
}

// defaultFactor is applied to regions absent from the tables, roughly the
// US grid average.
const defaultFactor = 0.000400

func providerFactors(provider types.CloudProvider) map[string]float64 {
	switch provider {
	case types.ProviderAWS:
		return awsFactors
	case types.ProviderGCP:
		return gcpFactors
	case types.ProviderAzure:
		return azureFactors
	default:
		return nil
	}
}

// Factor returns the emissions factor for the given provider region in
// metric tons CO2e per kWh, falling back to the grid-average default for
// unknown regions.
func Factor(provider types.CloudProvider, region string) float64 {
	if factors := providerFactors(provider); factors != nil {
		if f, ok := factors[region]; ok {
			return f
		}
	}
	return defaultFactor
}

// AllFactors returns every known emissions factor across all providers in a
// deterministic order (provider, then region).
func AllFactors() []types.EmissionsFactor {
	var out []types.EmissionsFactor
	for _, provider := range types.KnownProviders {
		factors := providerFactors(provider)
		regions := make([]string, 0, len(factors))
		for region := range factors {
			regions = append(regions, region)
		}
		sort.Strings(regions)
		for _, region := range regions {
			out = append(out, types.EmissionsFactor{
				Provider:    provider,
				Region:      region,
				MtPerKwHour: factors[region],
			})
		}
	}
	return out
}

// regionZones maps cloud regions to electricity-grid zone identifiers for
// live intensity lookups. Regions without a mapping are served from the
// static table only.
var regionZones = map[types.CloudProvider]map[string]string{
	types.ProviderAWS: {
		"us-east-1":    "US-MIDA-PJM",
		"us-west-2":    "US-NW-PACW",
		"eu-west-1":    "IE",
		"eu-west-3":    "FR",
		"eu-central-1": "DE",
		"eu-north-1":   "SE",
		"sa-east-1":    "BR-CS",
	},
	types.ProviderGCP: {
		"us-west1":      "US-NW-PACW",
		"europe-west1":  "BE",
		"europe-west3":  "DE",
		"europe-north1": "FI",
	},
	types.ProviderAzure: {
		"westus2":       "US-NW-PACW",
		"northeurope":   "IE",
		"francecentral": "FR",
		"uksouth":       "GB",
	},
}

// Zone returns the electricity-grid zone for a cloud region, or "" when no
// mapping exists.
func Zone(provider types.CloudProvider, region string) string {
	if zones, ok := regionZones[provider]; ok {
		return zones[region]
	}
	return ""
}
