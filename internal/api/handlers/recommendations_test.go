package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"carbonview/internal/types"
)

// --- Mock Service ---

type mockRecommendationsService struct {
	recs []types.Recommendation
	err  error

	gotTarget types.AWSRecommendationTarget
	called    bool
}

func (m *mockRecommendationsService) GetRecommendations(_ context.Context, target types.AWSRecommendationTarget) ([]types.Recommendation, error) {
	m.called = true
	m.gotTarget = target
	return m.recs, m.err
}

func makeRecommendationsRouter(svc RecommendationsServiceInterface) http.Handler {
	r := chi.NewRouter()
	NewRecommendationsHandler(svc, nil).RegisterRoutes(r)
	return r
}

// --- HandleGetRecommendations Tests ---

func TestHandleGetRecommendations_Success(t *testing.T) {
	svc := &mockRecommendationsService{
		recs: []types.Recommendation{
			{
				ID:          "a0b1",
				Provider:    types.ProviderAWS,
				InstanceID:  "i-0abc",
				Type:        types.RecommendationModify,
				CostSavings: 42.0,
			},
		},
	}
	router := makeRecommendationsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/recommendations?awsRecommendationTarget=CROSS_INSTANCE_FAMILY", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotTarget != types.CrossInstanceFamily {
		t.Errorf("expected CROSS_INSTANCE_FAMILY target, got %q", svc.gotTarget)
	}

	var recs []types.Recommendation
	if err := json.NewDecoder(rec.Body).Decode(&recs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(recs) != 1 || recs[0].InstanceID != "i-0abc" {
		t.Errorf("unexpected recommendations: %+v", recs)
	}
}

func TestHandleGetRecommendations_DefaultTarget(t *testing.T) {
	svc := &mockRecommendationsService{recs: []types.Recommendation{}}
	router := makeRecommendationsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.gotTarget != types.SameInstanceFamily {
		t.Errorf("expected SAME_INSTANCE_FAMILY default, got %q", svc.gotTarget)
	}
}

func TestHandleGetRecommendations_InvalidTarget(t *testing.T) {
	svc := &mockRecommendationsService{}
	router := makeRecommendationsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/recommendations?awsRecommendationTarget=BIGGER_INSTANCES", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	want := "AWS recommendation target BIGGER_INSTANCES is not supported"
	if body := rec.Body.String(); body != want {
		t.Errorf("expected %q, got %q", want, body)
	}
	if svc.called {
		t.Error("service must not be called for an invalid target")
	}
}

func TestHandleGetRecommendations_InternalError(t *testing.T) {
	svc := &mockRecommendationsService{err: errors.New("cloudwatch throttled")}
	router := makeRecommendationsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "Internal Server Error" {
		t.Errorf("expected generic 500 body, got %q", body)
	}
}
