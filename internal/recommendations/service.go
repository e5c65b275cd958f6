// Package recommendations implements compute rightsizing: instance
// inventory plus observed CPU utilization in, modify/terminate
// recommendations with projected cost and carbon savings out.
package recommendations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/google/uuid"

	"carbonview/internal/types"
)

// Utilization thresholds driving the recommendation decision.
const (
	// terminateCPUThreshold: below this average CPU the instance is
	// considered idle and recommended for termination.
	terminateCPUThreshold = 2.0
	// downsizeCPUThreshold: below this average CPU the instance is
	// recommended for a one-step downsize.
	downsizeCPUThreshold = 40.0

	// lookbackDays is the utilization observation window.
	lookbackDays = 14

	// hoursPerMonth is the standard 730-hour month used for projected
	// monthly savings.
	hoursPerMonth = 730.0

	// metricBatchSize caps the number of instances per GetMetricData call.
	metricBatchSize = 100
)

// InstanceStore is the read interface over the instance inventory.
// Satisfied by db.InstanceRepo.
type InstanceStore interface {
	ListByProvider(ctx context.Context, provider types.CloudProvider) ([]types.ComputeInstance, error)
}

// CloudWatchAPI is the subset of the CloudWatch client used for utilization
// queries. Defined locally so tests can substitute a fake.
type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, params *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// SavingsEstimator converts an avoided kilowatt-hour figure into kg CO2e for
// a region. Satisfied by a closure over the footprint estimator's emissions
// service.
type SavingsEstimator func(ctx context.Context, provider types.CloudProvider, region string, kwh float64) float64

// Service produces rightsizing recommendations for AWS compute instances.
type Service struct {
	instances InstanceStore
	cw        CloudWatchAPI
	co2e      SavingsEstimator
	logger    *slog.Logger
	now       func() time.Time // injectable for tests
}

// NewService creates a recommendations Service.
func NewService(instances InstanceStore, cw CloudWatchAPI, co2e SavingsEstimator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		instances: instances,
		cw:        cw,
		co2e:      co2e,
		logger:    logger,
		now:       time.Now,
	}
}

// ValidateRawRequest validates the recommendations query. An absent target
// defaults to SAME_INSTANCE_FAMILY; an unrecognized one is a
// recommendations validation error whose message reaches the caller
// verbatim.
func ValidateRawRequest(raw types.RecommendationsRawRequest) (types.AWSRecommendationTarget, error) {
	switch raw.AWSRecommendationTarget {
	case "":
		return types.SameInstanceFamily, nil
	case string(types.SameInstanceFamily):
		return types.SameInstanceFamily, nil
	case string(types.CrossInstanceFamily):
		return types.CrossInstanceFamily, nil
	default:
		return "", types.NewRecommendationsValidationError(
			"AWS recommendation target " + raw.AWSRecommendationTarget + " is not supported")
	}
}

// GetRecommendations returns rightsizing recommendations for the AWS
// instance inventory, ordered by descending cost savings.
func (s *Service) GetRecommendations(ctx context.Context, target types.AWSRecommendationTarget) ([]types.Recommendation, error) {
	instances, err := s.instances.ListByProvider(ctx, types.ProviderAWS)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return []types.Recommendation{}, nil
	}

	utilization, err := s.fetchUtilization(ctx, instances)
	if err != nil {
		return nil, err
	}

	var recs []types.Recommendation
	for _, inst := range instances {
		avgCPU, ok := utilization[inst.InstanceID]
		if !ok {
			// No datapoints in the window; skip rather than guess.
			continue
		}
		if rec, ok := s.recommend(ctx, inst, avgCPU, target); ok {
			recs = append(recs, rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].CostSavings > recs[j].CostSavings })
	if recs == nil {
		recs = []types.Recommendation{}
	}
	return recs, nil
}

// fetchUtilization queries CloudWatch for each instance's average CPU over
// the lookback window, batching queries per API call.
func (s *Service) fetchUtilization(ctx context.Context, instances []types.ComputeInstance) (map[string]float64, error) {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	utilization := make(map[string]float64, len(instances))

	for batchStart := 0; batchStart < len(instances); batchStart += metricBatchSize {
		batchEnd := batchStart + metricBatchSize
		if batchEnd > len(instances) {
			batchEnd = len(instances)
		}
		batch := instances[batchStart:batchEnd]

		queries := make([]cwtypes.MetricDataQuery, 0, len(batch))
		idToInstance := make(map[string]string, len(batch))
		for i, inst := range batch {
			queryID := fmt.Sprintf("cpu_%d", batchStart+i)
			idToInstance[queryID] = inst.InstanceID
			queries = append(queries, cwtypes.MetricDataQuery{
				Id: aws.String(queryID),
				MetricStat: &cwtypes.MetricStat{
					Metric: &cwtypes.Metric{
						Namespace:  aws.String("AWS/EC2"),
						MetricName: aws.String("CPUUtilization"),
						Dimensions: []cwtypes.Dimension{
							{Name: aws.String("InstanceId"), Value: aws.String(inst.InstanceID)},
						},
					},
					Period: aws.Int32(3600),
					Stat:   aws.String("Average"),
				},
			})
		}

		out, err := s.cw.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
			StartTime:         aws.Time(start),
			EndTime:           aws.Time(end),
			MetricDataQueries: queries,
		})
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeUpstreamUnavailable, "failed to fetch instance utilization", err)
		}

		for _, result := range out.MetricDataResults {
			if result.Id == nil || len(result.Values) == 0 {
				continue
			}
			instanceID, ok := idToInstance[*result.Id]
			if !ok {
				continue
			}
			var sum float64
			for _, v := range result.Values {
				sum += v
			}
			utilization[instanceID] = sum / float64(len(result.Values))
		}
	}

	return utilization, nil
}

// recommend decides whether an instance warrants a recommendation and
// computes its projected monthly savings.
func (s *Service) recommend(
	ctx context.Context,
	inst types.ComputeInstance,
	avgCPU float64,
	target types.AWSRecommendationTarget,
) (types.Recommendation, bool) {
	var (
		recType      types.RecommendationType
		detail       string
		costFraction float64 // fraction of current cost saved
	)

	switch {
	case avgCPU < terminateCPUThreshold:
		recType = types.RecommendationTerminate
		detail = fmt.Sprintf("Terminate idle instance %s (%s), average CPU %.1f%% over %d days",
			inst.InstanceID, inst.InstanceType, avgCPU, lookbackDays)
		costFraction = 1.0
	case avgCPU < downsizeCPUThreshold:
		targetType, ok := downsizeTarget(inst.InstanceType, target)
		if !ok {
			return types.Recommendation{}, false
		}
		recType = types.RecommendationModify
		detail = fmt.Sprintf("Resize instance %s from %s to %s, average CPU %.1f%% over %d days",
			inst.InstanceID, inst.InstanceType, targetType, avgCPU, lookbackDays)
		costFraction = 0.5 // one size step halves both cost and capacity
	default:
		return types.Recommendation{}, false
	}

	costSavings := inst.HourlyCost * hoursPerMonth * costFraction

	// Energy savings scale with the capacity removed, at the compute
	// wattage assumed by the footprint estimator.
	kwhSavings := instanceWatts(inst.InstanceType) * hoursPerMonth * costFraction / 1000.0

	var co2eSavings float64
	if s.co2e != nil {
		co2eSavings = s.co2e(ctx, inst.Provider, inst.Region, kwhSavings)
	}

	return types.Recommendation{
		ID:                  uuid.NewString(),
		Provider:            inst.Provider,
		AccountID:           inst.AccountID,
		AccountName:         inst.AccountName,
		InstanceID:          inst.InstanceID,
		Region:              inst.Region,
		Type:                recType,
		Detail:              detail,
		CostSavings:         costSavings,
		Co2eSavingsKg:       co2eSavings,
		KilowattHourSavings: kwhSavings,
	}, true
}
