package footprint

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"carbonview/internal/db"
	"carbonview/internal/types"
)

// UsageStore is the read interface over raw billing usage. Satisfied by
// db.UsageRepo.
type UsageStore interface {
	Query(ctx context.Context, f db.UsageFilter) ([]types.UsageLineItem, error)
	Coverage(ctx context.Context, provider types.CloudProvider) (earliest, latest time.Time, ok bool, err error)
}

// EstimateCache persists computed per-day estimates. Satisfied by
// db.EstimateCacheRepo.
type EstimateCache interface {
	Get(ctx context.Context, provider types.CloudProvider, start, end time.Time) (map[time.Time][]types.ServiceEstimate, error)
	Put(ctx context.Context, provider types.CloudProvider, day time.Time, estimates []types.ServiceEstimate) error
}

// Service computes cost-and-estimate results for validated footprint
// requests. Providers are estimated concurrently; per-day estimates are
// served from the cache where possible and recomputed from raw usage
// otherwise.
type Service struct {
	usage        UsageStore
	cache        EstimateCache
	estimator    *Estimator
	cacheEnabled bool
	logger       *slog.Logger
}

// NewService creates a footprint Service. cacheEnabled=false disables the
// estimate cache entirely, as if every request carried ignoreCache.
func NewService(
	usage UsageStore,
	cache EstimateCache,
	estimator *Estimator,
	cacheEnabled bool,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		usage:        usage,
		cache:        cache,
		estimator:    estimator,
		cacheEnabled: cacheEnabled,
		logger:       logger,
	}
}

// GetCostAndEstimates computes the footprint estimation results for the
// request, grouped into GroupBy time buckets and paginated by Skip/Limit
// over buckets.
//
// If the requested window only partially overlaps the date range covered by
// the usage store, a partial-data error is returned rather than a silently
// truncated result. A window with no overlap at all yields an empty result.
func (s *Service) GetCostAndEstimates(ctx context.Context, req *EstimationRequest) ([]types.EstimationResult, error) {
	providers := req.CloudProviders
	if len(providers) == 0 {
		providers = types.KnownProviders
	}

	if err := s.checkCoverage(ctx, providers, req); err != nil {
		return nil, err
	}

	// Estimate each provider concurrently (they touch disjoint rows).
	var (
		mu          sync.Mutex
		perProvider = make(map[types.CloudProvider]map[time.Time][]types.ServiceEstimate, len(providers))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, provider := range providers {
		g.Go(func() error {
			byDay, err := s.providerEstimates(gctx, provider, req)
			if err != nil {
				return err
			}
			mu.Lock()
			perProvider[provider] = byDay
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := assembleResults(perProvider, req.GroupBy)

	// Skip/Limit paginate over time buckets.
	if req.Skip > 0 {
		if req.Skip >= len(results) {
			return []types.EstimationResult{}, nil
		}
		results = results[req.Skip:]
	}
	if req.Limit > 0 && req.Limit < len(results) {
		results = results[:req.Limit]
	}

	return results, nil
}

// checkCoverage enforces the partial-data contract: a window extending
// beyond the stored data on either side, while still overlapping it, is an
// error the caller must see.
func (s *Service) checkCoverage(ctx context.Context, providers []types.CloudProvider, req *EstimationRequest) error {
	var (
		earliest, latest time.Time
		found            bool
	)
	for _, provider := range providers {
		e, l, ok, err := s.usage.Coverage(ctx, provider)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !found || e.Before(earliest) {
			earliest = e
		}
		if !found || l.After(latest) {
			latest = l
		}
		found = true
	}

	if !found {
		return nil // no data anywhere: empty result, not an error
	}
	if req.End.Before(earliest) || req.Start.After(latest) {
		return nil // no overlap: empty result
	}
	if req.Start.Before(earliest) || req.End.After(latest) {
		return types.NewPartialDataError("The response contains partial data for the requested date range")
	}
	return nil
}

// providerEstimates returns the per-day service estimates for one provider
// across the requested window.
//
// The estimate cache stores unfiltered provider-wide days, so any request
// that narrows by account, service, region, or tag bypasses the cache and
// computes directly from usage.
func (s *Service) providerEstimates(
	ctx context.Context,
	provider types.CloudProvider,
	req *EstimationRequest,
) (map[time.Time][]types.ServiceEstimate, error) {
	filtered := len(req.Accounts) > 0 || len(req.Services) > 0 || len(req.Regions) > 0 || len(req.Tags) > 0
	useCache := s.cacheEnabled && s.cache != nil && !filtered

	byDay := make(map[time.Time][]types.ServiceEstimate)
	if useCache && !req.IgnoreCache {
		cached, err := s.cache.Get(ctx, provider, req.Start, req.End)
		if err != nil {
			return nil, err
		}
		byDay = cached
	}

	// Determine which requested days still need computing.
	var missing []time.Time
	for day := req.Start; !day.After(req.End); day = day.AddDate(0, 0, 1) {
		if _, ok := byDay[day]; !ok {
			missing = append(missing, day)
		}
	}
	if len(missing) == 0 {
		return byDay, nil
	}

	items, err := s.usage.Query(ctx, db.UsageFilter{
		Provider: provider,
		Start:    missing[0],
		End:      missing[len(missing)-1],
		Accounts: req.Accounts,
		Services: req.Services,
		Regions:  req.Regions,
		Tags:     req.Tags,
	})
	if err != nil {
		return nil, err
	}

	missingSet := make(map[time.Time]struct{}, len(missing))
	for _, day := range missing {
		missingSet[day] = struct{}{}
	}

	computed := make(map[time.Time]map[estimateKey]*types.ServiceEstimate)
	for _, item := range items {
		day := item.UsageDate.UTC().Truncate(24 * time.Hour)
		if _, ok := missingSet[day]; !ok {
			continue // day already served from cache
		}
		est := s.estimator.Estimate(ctx, item)
		mergeEstimate(computed, day, est)
	}

	for _, day := range missing {
		ests := flattenEstimates(computed[day])
		if len(ests) > 0 {
			byDay[day] = ests
		}
		if useCache && len(ests) > 0 {
			// Cache writes are best-effort; a failed write must not fail
			// the request.
			if err := s.cache.Put(ctx, provider, day, ests); err != nil {
				s.logger.Warn("estimate cache write failed",
					"provider", string(provider),
					"day", day.Format(DateLayout),
					"error", err,
				)
			}
		}
	}

	return byDay, nil
}

// estimateKey identifies one aggregation bucket within a day or period.
type estimateKey struct {
	provider  types.CloudProvider
	accountID string
	service   string
	region    string
}

func mergeEstimate(into map[time.Time]map[estimateKey]*types.ServiceEstimate, day time.Time, est types.ServiceEstimate) {
	key := estimateKey{
		provider:  est.Provider,
		accountID: est.AccountID,
		service:   est.Service,
		region:    est.Region,
	}
	bucket := into[day]
	if bucket == nil {
		bucket = make(map[estimateKey]*types.ServiceEstimate)
		into[day] = bucket
	}
	if existing, ok := bucket[key]; ok {
		existing.KilowattHours += est.KilowattHours
		existing.Co2eKg += est.Co2eKg
		existing.Cost += est.Cost
		return
	}
	copied := est
	bucket[key] = &copied
}

func flattenEstimates(bucket map[estimateKey]*types.ServiceEstimate) []types.ServiceEstimate {
	if len(bucket) == 0 {
		return nil
	}
	out := make([]types.ServiceEstimate, 0, len(bucket))
	for _, est := range bucket {
		out = append(out, *est)
	}
	sortEstimates(out)
	return out
}

func sortEstimates(ests []types.ServiceEstimate) {
	sort.Slice(ests, func(i, j int) bool {
		a, b := ests[i], ests[j]
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if a.Service != b.Service {
			return a.Service < b.Service
		}
		return a.Region < b.Region
	})
}

// assembleResults merges all providers' per-day estimates into GroupBy time
// buckets, combining estimates that share an aggregation key within a
// bucket, and returns the buckets sorted by timestamp.
func assembleResults(
	perProvider map[types.CloudProvider]map[time.Time][]types.ServiceEstimate,
	groupBy types.GroupBy,
) []types.EstimationResult {
	buckets := make(map[time.Time]map[estimateKey]*types.ServiceEstimate)
	for _, byDay := range perProvider {
		for day, ests := range byDay {
			period := PeriodStart(day, groupBy)
			for _, est := range ests {
				mergeEstimate(buckets, period, est)
			}
		}
	}

	timestamps := make([]time.Time, 0, len(buckets))
	for ts := range buckets {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	results := make([]types.EstimationResult, 0, len(timestamps))
	for _, ts := range timestamps {
		results = append(results, types.EstimationResult{
			Timestamp:        ts,
			GroupBy:          groupBy,
			ServiceEstimates: flattenEstimates(buckets[ts]),
		})
	}
	return results
}

// PeriodStart returns the UTC start of the GroupBy bucket containing the
// given day. Weeks start on Monday; quarters on Jan/Apr/Jul/Oct 1.
func PeriodStart(day time.Time, groupBy types.GroupBy) time.Time {
	day = day.UTC()
	y, m, d := day.Date()
	switch groupBy {
	case types.GroupByWeek:
		offset := (int(day.Weekday()) + 6) % 7 // days since Monday
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	case types.GroupByMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case types.GroupByQuarter:
		quarterMonth := m - (m-1)%3
		return time.Date(y, quarterMonth, 1, 0, 0, 0, 0, time.UTC)
	case types.GroupByYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default: // day
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}
