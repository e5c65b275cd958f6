package emissions

import (
	"context"
	"errors"
	"testing"

	"carbonview/internal/types"
)

// fakeIntensitySource returns a fixed intensity per zone and fails for
// zones in failZones.
type fakeIntensitySource struct {
	byZone    map[string]float64
	failZones map[string]bool

	lookups []string
}

func (f *fakeIntensitySource) Intensity(_ context.Context, zone string) (float64, error) {
	f.lookups = append(f.lookups, zone)
	if f.failZones[zone] {
		return 0, errors.New("upstream 503")
	}
	if g, ok := f.byZone[zone]; ok {
		return g, nil
	}
	return 0, errors.New("unknown zone")
}

func TestFactor(t *testing.T) {
	if got := Factor(types.ProviderAWS, "us-east-1"); got != 0.000383 {
		t.Errorf("expected us-east-1 factor 0.000383, got %v", got)
	}
	if got := Factor(types.ProviderGCP, "us-west1"); got != 0.000078 {
		t.Errorf("expected us-west1 factor 0.000078, got %v", got)
	}
	if got := Factor(types.ProviderAWS, "mars-north-1"); got != defaultFactor {
		t.Errorf("expected default factor for unknown region, got %v", got)
	}
	if got := Factor(types.CloudProvider("OTHER"), "anywhere"); got != defaultFactor {
		t.Errorf("expected default factor for unknown provider, got %v", got)
	}
}

func TestAllFactors_Deterministic(t *testing.T) {
	first := AllFactors()
	second := AllFactors()

	if len(first) == 0 {
		t.Fatal("expected factors")
	}
	if len(first) != len(second) {
		t.Fatalf("inconsistent lengths: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ordering not deterministic at %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	// AWS regions sort before GCP's, regions alphabetical within provider.
	if first[0].Provider != types.ProviderAWS {
		t.Errorf("expected AWS first, got %s", first[0].Provider)
	}
	for i := 1; i < len(first); i++ {
		if first[i].Provider == first[i-1].Provider && first[i].Region < first[i-1].Region {
			t.Errorf("regions out of order: %s before %s", first[i-1].Region, first[i].Region)
		}
	}
}

func TestGetEmissionsFactors_StaticOnly(t *testing.T) {
	svc := NewService(nil, nil)

	factors, err := svc.GetEmissionsFactors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(factors) != len(AllFactors()) {
		t.Errorf("expected full static table, got %d factors", len(factors))
	}
}

func TestGetEmissionsFactors_LiveRefresh(t *testing.T) {
	source := &fakeIntensitySource{
		byZone: map[string]float64{
			"US-MIDA-PJM": 410.0, // grams per kWh
		},
		failZones: map[string]bool{"SE": true},
	}
	svc := NewService(source, nil)

	factors, err := svc.GetEmissionsFactors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byRegion := make(map[string]types.EmissionsFactor)
	for _, f := range factors {
		if f.Provider == types.ProviderAWS {
			byRegion[f.Region] = f
		}
	}

	// Zoned region refreshed from the live source, grams converted to mt.
	if got := byRegion["us-east-1"].MtPerKwHour; got != 410.0/1e6 {
		t.Errorf("expected live-refreshed factor %v, got %v", 410.0/1e6, got)
	}
	// A failing zone falls back silently to the static value.
	if got := byRegion["eu-north-1"].MtPerKwHour; got != 0.000008 {
		t.Errorf("expected static fallback for failing zone, got %v", got)
	}
	// A region with no zone mapping is never looked up.
	if got := byRegion["us-east-2"].MtPerKwHour; got != 0.000425 {
		t.Errorf("expected static factor for unzoned region, got %v", got)
	}
	for _, zone := range source.lookups {
		if zone == "" {
			t.Error("empty zone must never be looked up")
		}
	}
}

func TestIntensityOrStatic(t *testing.T) {
	source := &fakeIntensitySource{
		byZone: map[string]float64{"US-MIDA-PJM": 410.0},
	}
	svc := NewService(source, nil)

	// Mapped region with a healthy source: live value.
	if got := svc.IntensityOrStatic(context.Background(), types.ProviderAWS, "us-east-1"); got != 410.0 {
		t.Errorf("expected live intensity 410, got %v", got)
	}
	// Unzoned region: static factor scaled to grams.
	if got := svc.IntensityOrStatic(context.Background(), types.ProviderAWS, "us-east-2"); got != 425.0 {
		t.Errorf("expected static 425 g/kWh, got %v", got)
	}
	// No source at all: static only.
	staticSvc := NewService(nil, nil)
	if got := staticSvc.IntensityOrStatic(context.Background(), types.ProviderAWS, "us-east-1"); got != 383.0 {
		t.Errorf("expected static 383 g/kWh, got %v", got)
	}
}
