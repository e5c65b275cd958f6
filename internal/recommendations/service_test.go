package recommendations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"carbonview/internal/types"
)

// --- Mocks ---

type mockInstanceStore struct {
	instances []types.ComputeInstance
	err       error
}

func (m *mockInstanceStore) ListByProvider(_ context.Context, _ types.CloudProvider) ([]types.ComputeInstance, error) {
	return m.instances, m.err
}

// mockCloudWatch returns a fixed average CPU per instance ID. Instances
// absent from the map produce no datapoints.
type mockCloudWatch struct {
	avgCPU map[string]float64
	err    error

	calls int
}

func (m *mockCloudWatch) GetMetricData(_ context.Context, params *cloudwatch.GetMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	out := &cloudwatch.GetMetricDataOutput{}
	for _, q := range params.MetricDataQueries {
		instanceID := *q.MetricStat.Metric.Dimensions[0].Value
		cpu, ok := m.avgCPU[instanceID]
		if !ok {
			out.MetricDataResults = append(out.MetricDataResults, cwtypes.MetricDataResult{
				Id: q.Id,
			})
			continue
		}
		out.MetricDataResults = append(out.MetricDataResults, cwtypes.MetricDataResult{
			Id:     q.Id,
			Values: []float64{cpu, cpu},
		})
	}
	return out, nil
}

// --- Helpers ---

func instance(id, instanceType string, hourlyCost float64) types.ComputeInstance {
	return types.ComputeInstance{
		Provider:     types.ProviderAWS,
		AccountID:    "123456789012",
		AccountName:  "prod",
		InstanceID:   id,
		InstanceType: instanceType,
		Region:       "us-east-1",
		HourlyCost:   hourlyCost,
	}
}

func newTestService(store InstanceStore, cw CloudWatchAPI) *Service {
	co2e := func(_ context.Context, _ types.CloudProvider, _ string, kwh float64) float64 {
		return kwh * 0.383 // us-east-1 grid intensity, kg per kWh
	}
	svc := NewService(store, cw, co2e, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

// --- ValidateRawRequest ---

func TestValidateRawRequest(t *testing.T) {
	cases := []struct {
		raw     string
		want    types.AWSRecommendationTarget
		wantErr bool
	}{
		{"", types.SameInstanceFamily, false},
		{"SAME_INSTANCE_FAMILY", types.SameInstanceFamily, false},
		{"CROSS_INSTANCE_FAMILY", types.CrossInstanceFamily, false},
		{"same_instance_family", "", true},
		{"ANYTHING_ELSE", "", true},
	}

	for _, tc := range cases {
		got, err := ValidateRawRequest(types.RecommendationsRawRequest{AWSRecommendationTarget: tc.raw})
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.raw)
				continue
			}
			var appErr *types.AppError
			if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeRecommendationsValidation {
				t.Errorf("%q: expected recommendations validation error, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

// --- GetRecommendations ---

func TestGetRecommendations_TerminatesIdleInstances(t *testing.T) {
	store := &mockInstanceStore{instances: []types.ComputeInstance{
		instance("i-idle", "m5.large", 0.096),
	}}
	cw := &mockCloudWatch{avgCPU: map[string]float64{"i-idle": 0.5}}
	svc := newTestService(store, cw)

	recs, err := svc.GetRecommendations(context.Background(), types.SameInstanceFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Type != types.RecommendationTerminate {
		t.Errorf("expected terminate, got %s", rec.Type)
	}
	if rec.ID == "" {
		t.Error("expected a generated recommendation ID")
	}

	// Full monthly cost saved: 0.096 * 730.
	wantCost := 0.096 * 730.0
	if math.Abs(rec.CostSavings-wantCost) > 1e-9 {
		t.Errorf("expected cost savings %v, got %v", wantCost, rec.CostSavings)
	}

	// m5.large draws 35 W; full termination saves all of it.
	wantKwh := 35.0 * 730.0 / 1000.0
	if math.Abs(rec.KilowattHourSavings-wantKwh) > 1e-9 {
		t.Errorf("expected kWh savings %v, got %v", wantKwh, rec.KilowattHourSavings)
	}
	if math.Abs(rec.Co2eSavingsKg-wantKwh*0.383) > 1e-9 {
		t.Errorf("expected co2e savings %v, got %v", wantKwh*0.383, rec.Co2eSavingsKg)
	}
}

func TestGetRecommendations_DownsizesUnderutilized(t *testing.T) {
	store := &mockInstanceStore{instances: []types.ComputeInstance{
		instance("i-low", "m5.xlarge", 0.192),
	}}
	cw := &mockCloudWatch{avgCPU: map[string]float64{"i-low": 25.0}}
	svc := newTestService(store, cw)

	recs, err := svc.GetRecommendations(context.Background(), types.SameInstanceFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Type != types.RecommendationModify {
		t.Errorf("expected modify, got %s", rec.Type)
	}
	if want := 0.192 * 730.0 * 0.5; math.Abs(rec.CostSavings-want) > 1e-9 {
		t.Errorf("expected half monthly cost %v, got %v", want, rec.CostSavings)
	}
	if rec.Detail == "" {
		t.Error("expected a populated detail string")
	}
}

func TestGetRecommendations_CrossFamilyTarget(t *testing.T) {
	store := &mockInstanceStore{instances: []types.ComputeInstance{
		instance("i-low", "m5.xlarge", 0.192),
	}}
	cw := &mockCloudWatch{avgCPU: map[string]float64{"i-low": 25.0}}
	svc := newTestService(store, cw)

	recs, err := svc.GetRecommendations(context.Background(), types.CrossInstanceFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if got, want := recs[0].Detail, "t3.xlarge"; !strings.Contains(got, want) {
		t.Errorf("expected cross-family target %q in detail %q", want, got)
	}
}

func TestGetRecommendations_SkipsHealthyAndUnknown(t *testing.T) {
	store := &mockInstanceStore{instances: []types.ComputeInstance{
		instance("i-busy", "m5.large", 0.096),    // healthy utilization
		instance("i-silent", "m5.large", 0.096),  // no datapoints
		instance("i-minimal", "t3.nano", 0.0052), // nowhere to downsize
	}}
	cw := &mockCloudWatch{avgCPU: map[string]float64{
		"i-busy":    75.0,
		"i-minimal": 20.0,
	}}
	svc := newTestService(store, cw)

	recs, err := svc.GetRecommendations(context.Background(), types.SameInstanceFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no recommendations, got %+v", recs)
	}
}

func TestGetRecommendations_SortsByCostSavings(t *testing.T) {
	store := &mockInstanceStore{instances: []types.ComputeInstance{
		instance("i-small", "m5.large", 0.096),
		instance("i-big", "r5.4xlarge", 1.008),
	}}
	cw := &mockCloudWatch{avgCPU: map[string]float64{
		"i-small": 1.0,
		"i-big":   1.0,
	}}
	svc := newTestService(store, cw)

	recs, err := svc.GetRecommendations(context.Background(), types.SameInstanceFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].InstanceID != "i-big" {
		t.Errorf("expected largest savings first, got %s", recs[0].InstanceID)
	}
}

func TestGetRecommendations_EmptyInventory(t *testing.T) {
	svc := newTestService(&mockInstanceStore{}, &mockCloudWatch{})

	recs, err := svc.GetRecommendations(context.Background(), types.SameInstanceFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", recs)
	}
}

func TestGetRecommendations_CloudWatchFailure(t *testing.T) {
	store := &mockInstanceStore{instances: []types.ComputeInstance{
		instance("i-any", "m5.large", 0.096),
	}}
	cw := &mockCloudWatch{err: errors.New("throttled")}
	svc := newTestService(store, cw)

	_, err := svc.GetRecommendations(context.Background(), types.SameInstanceFamily)
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamUnavailable {
		t.Errorf("expected upstream unavailable code, got %v", err)
	}
}

func TestGetRecommendations_BatchesLargeInventories(t *testing.T) {
	var instances []types.ComputeInstance
	avgCPU := make(map[string]float64)
	for i := 0; i < metricBatchSize+1; i++ {
		id := fmt.Sprintf("i-%04d", i)
		instances = append(instances, instance(id, "m5.large", 0.096))
		avgCPU[id] = 75.0
	}
	store := &mockInstanceStore{instances: instances}
	cw := &mockCloudWatch{avgCPU: avgCPU}
	svc := newTestService(store, cw)

	if _, err := svc.GetRecommendations(context.Background(), types.SameInstanceFamily); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cw.calls != 2 {
		t.Errorf("expected 2 batched calls, got %d", cw.calls)
	}
}

// --- Sizing ---

func TestDownsizeTarget(t *testing.T) {
	cases := []struct {
		instanceType string
		target       types.AWSRecommendationTarget
		want         string
		ok           bool
	}{
		{"m5.xlarge", types.SameInstanceFamily, "m5.large", true},
		{"m5.2xlarge", types.SameInstanceFamily, "m5.xlarge", true},
		{"t3.nano", types.SameInstanceFamily, "", false},
		{"m5.xlarge", types.CrossInstanceFamily, "t3.xlarge", true},
		{"r5.large", types.CrossInstanceFamily, "m5.large", true},
		{"z1d.large", types.CrossInstanceFamily, "z1d.medium", true}, // no cheaper family known
		{"weird", types.SameInstanceFamily, "", false},
		{"m5.mega", types.SameInstanceFamily, "", false},
	}

	for _, tc := range cases {
		got, ok := downsizeTarget(tc.instanceType, tc.target)
		if ok != tc.ok || got != tc.want {
			t.Errorf("downsizeTarget(%q, %s) = %q, %v; want %q, %v",
				tc.instanceType, tc.target, got, ok, tc.want, tc.ok)
		}
	}
}

func TestInstanceWatts_ScalesWithSize(t *testing.T) {
	large := instanceWatts("m5.large")
	xlarge := instanceWatts("m5.xlarge")
	if xlarge != large*2 {
		t.Errorf("xlarge must draw twice large: %v vs %v", xlarge, large)
	}
	if instanceWatts("garbage") != defaultFamilyWatts {
		t.Error("unparseable types fall back to the default wattage")
	}
}
