// Package types defines the shared domain model for the carbonview platform:
// cloud providers, usage line items, footprint estimates, emissions factors,
// rightsizing recommendations, and the application error taxonomy.
package types

import (
	"time"
)

// CloudProvider identifies a supported cloud platform.
type CloudProvider string

const (
	ProviderAWS   CloudProvider = "AWS"
	ProviderGCP   CloudProvider = "GCP"
	ProviderAzure CloudProvider = "AZURE"
)

// KnownProviders lists every provider the estimation pipeline understands,
// in canonical order.
var KnownProviders = []CloudProvider{ProviderAWS, ProviderGCP, ProviderAzure}

// IsKnownProvider reports whether p is one of the supported providers.
func IsKnownProvider(p CloudProvider) bool {
	switch p {
	case ProviderAWS, ProviderGCP, ProviderAzure:
		return true
	default:
		return false
	}
}

// GroupBy is the time bucket used to aggregate footprint estimates.
type GroupBy string

const (
	GroupByDay     GroupBy = "day"
	GroupByWeek    GroupBy = "week"
	GroupByMonth   GroupBy = "month"
	GroupByQuarter GroupBy = "quarter"
	GroupByYear    GroupBy = "year"
)

// IsValidGroupBy reports whether s names a supported grouping period.
func IsValidGroupBy(s string) bool {
	switch GroupBy(s) {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByQuarter, GroupByYear:
		return true
	default:
		return false
	}
}

// AWSRecommendationTarget selects the instance search space for AWS
// rightsizing recommendations.
type AWSRecommendationTarget string

const (
	// SameInstanceFamily restricts modify recommendations to smaller sizes
	// within the instance's own family.
	SameInstanceFamily AWSRecommendationTarget = "SAME_INSTANCE_FAMILY"
	// CrossInstanceFamily allows modify recommendations into cheaper
	// families with equivalent capacity.
	CrossInstanceFamily AWSRecommendationTarget = "CROSS_INSTANCE_FAMILY"
)

// UsageLineItem is one cost-and-usage row from a cloud billing export.
// It is the raw input to the footprint estimation pipeline.
type UsageLineItem struct {
	Provider    CloudProvider     `json:"cloudProvider"`
	AccountID   string            `json:"accountId"`
	AccountName string            `json:"accountName"`
	Service     string            `json:"serviceName"`
	Region      string            `json:"region"`
	UsageDate   time.Time         `json:"usageDate"`
	UsageAmount float64           `json:"usageAmount"`
	UsageUnit   string            `json:"usageUnit"`
	Cost        float64           `json:"cost"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// ServiceEstimate is the computed footprint for one service in one region on
// one account, within a single grouping period.
type ServiceEstimate struct {
	Provider      CloudProvider `json:"cloudProvider"`
	AccountID     string        `json:"accountId"`
	AccountName   string        `json:"accountName"`
	Service       string        `json:"serviceName"`
	Region        string        `json:"region"`
	KilowattHours float64       `json:"kilowattHours"`
	Co2eKg        float64       `json:"co2e"`
	Cost          float64       `json:"cost"`
}

// EstimationResult groups the service estimates that fall into one time
// bucket. Timestamp is the start of the bucket.
type EstimationResult struct {
	Timestamp        time.Time         `json:"timestamp"`
	GroupBy          GroupBy           `json:"groupBy"`
	ServiceEstimates []ServiceEstimate `json:"serviceEstimates"`
}

// SumCO2e returns the total kg CO2e across all service estimates in the
// given results. An empty or nil slice sums to zero.
func SumCO2e(results []EstimationResult) float64 {
	var total float64
	for _, r := range results {
		for _, s := range r.ServiceEstimates {
			total += s.Co2eKg
		}
	}
	return total
}

// EmissionsFactor is the grid carbon intensity for one cloud region,
// expressed in metric tons CO2e per kilowatt-hour.
type EmissionsFactor struct {
	Provider    CloudProvider `json:"cloudProvider"`
	Region      string        `json:"region"`
	MtPerKwHour float64       `json:"mtPerKwHour"`
}

// RecommendationType classifies a rightsizing recommendation.
type RecommendationType string

const (
	RecommendationModify    RecommendationType = "Modify"
	RecommendationTerminate RecommendationType = "Terminate"
)

// Recommendation is a single compute rightsizing recommendation with its
// projected monthly cost and carbon savings.
type Recommendation struct {
	ID                  string             `json:"id"`
	Provider            CloudProvider      `json:"cloudProvider"`
	AccountID           string             `json:"accountId"`
	AccountName         string             `json:"accountName"`
	InstanceID          string             `json:"instanceId"`
	Region              string             `json:"region"`
	Type                RecommendationType `json:"recommendationType"`
	Detail              string             `json:"recommendationDetail"`
	CostSavings         float64            `json:"costSavings"`
	Co2eSavingsKg       float64            `json:"co2eSavings"`
	KilowattHourSavings float64            `json:"kilowattHourSavings"`
}

// ComputeInstance is one running instance from the inventory store, the
// input to the recommendation engine.
type ComputeInstance struct {
	Provider     CloudProvider `json:"cloudProvider"`
	AccountID    string        `json:"accountId"`
	AccountName  string        `json:"accountName"`
	InstanceID   string        `json:"instanceId"`
	InstanceType string        `json:"instanceType"`
	Region       string        `json:"region"`
	HourlyCost   float64       `json:"hourlyCost"`
}
