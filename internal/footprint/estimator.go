package footprint

import (
	"context"
	"strings"

	"carbonview/internal/emissions"
	"carbonview/internal/types"
)

// Power-usage-effectiveness multipliers per provider: total datacenter energy
// drawn per unit of IT energy.
var providerPUE = map[types.CloudProvider]float64{
	types.ProviderAWS:   1.135,
	types.ProviderGCP:   1.100,
	types.ProviderAzure: 1.185,
}

// serviceWatts is the average IT power draw assumed for one unit-hour of the
// given service. Compute-shaped services dominate; anything unknown gets the
// conservative default below.
var serviceWatts = map[string]float64{
	"ec2":             35.0,
	"lambda":          12.0,
	"rds":             55.0,
	"elasticache":     40.0,
	"computeengine":   35.0,
	"cloudsql":        55.0,
	"cloudfunctions":  12.0,
	"virtualmachines": 35.0,
	"functions":       12.0,
	"sqldatabase":     55.0,
}

const (
	defaultWatts = 20.0

	// storageKwhPerGBMonth is the energy cost of holding one GB for one
	// month, replicated.
	storageKwhPerGBMonth = 0.0001

	// networkKwhPerGB is the energy cost of one GB of egress.
	networkKwhPerGB = 0.001
)

// Estimator converts usage line items into kilowatt-hours and kg CO2e using
// per-service energy coefficients and regional grid intensity.
type Estimator struct {
	emissions *emissions.Service
}

// NewEstimator creates an Estimator that resolves grid intensity through the
// given emissions service.
func NewEstimator(em *emissions.Service) *Estimator {
	return &Estimator{emissions: em}
}

// Estimate computes the footprint of a single usage line item.
func (e *Estimator) Estimate(ctx context.Context, item types.UsageLineItem) types.ServiceEstimate {
	kwh := e.kilowattHours(item)

	// Grid intensity in grams CO2e per kWh for the line item's region.
	grams := e.emissions.IntensityOrStatic(ctx, item.Provider, item.Region)

	return types.ServiceEstimate{
		Provider:      item.Provider,
		AccountID:     item.AccountID,
		AccountName:   item.AccountName,
		Service:       item.Service,
		Region:        item.Region,
		KilowattHours: kwh,
		Co2eKg:        kwh * grams / 1000.0,
		Cost:          item.Cost,
	}
}

// kilowattHours derives the energy use of a line item from its usage unit.
func (e *Estimator) kilowattHours(item types.UsageLineItem) float64 {
	pue, ok := providerPUE[item.Provider]
	if !ok {
		pue = 1.135
	}

	var kwh float64
	switch normalizeUnit(item.UsageUnit) {
	case unitHours:
		watts := defaultWatts
		if w, ok := serviceWatts[normalizeService(item.Service)]; ok {
			watts = w
		}
		kwh = watts * item.UsageAmount / 1000.0
	case unitGBMonth:
		kwh = storageKwhPerGBMonth * item.UsageAmount
	case unitGB:
		kwh = networkKwhPerGB * item.UsageAmount
	default:
		// Unmeasurable units (requests, API calls) carry no attributable
		// energy in this model.
		return 0
	}

	return kwh * pue
}

type usageUnit int

const (
	unitUnknown usageUnit = iota
	unitHours
	unitGBMonth
	unitGB
)

func normalizeUnit(unit string) usageUnit {
	switch strings.ToLower(unit) {
	case "hrs", "hours", "hour":
		return unitHours
	case "gb-month", "gb-mo", "gb-months":
		return unitGBMonth
	case "gb":
		return unitGB
	default:
		return unitUnknown
	}
}

func normalizeService(service string) string {
	s := strings.ToLower(service)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "amazon")
	s = strings.TrimPrefix(s, "aws")
	s = strings.TrimPrefix(s, "azure")
	return s
}
