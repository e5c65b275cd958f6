package db

import (
	"context"
	"time"

	"carbonview/internal/types"
)

// EstimateCacheRepo provides data access for the estimate_cache table, which
// persists computed per-day service estimates so repeated footprint queries
// do not re-derive them from raw usage.
type EstimateCacheRepo struct {
	db DBTX
}

// NewEstimateCacheRepo creates a new EstimateCacheRepo backed by the given
// database connection (pool or transaction).
func NewEstimateCacheRepo(db DBTX) *EstimateCacheRepo {
	return &EstimateCacheRepo{db: db}
}

// Get returns the cached per-day service estimates for the provider within
// the inclusive date range, keyed by calendar date (UTC midnight). Days with
// no cache entry are simply absent from the map.
func (r *EstimateCacheRepo) Get(
	ctx context.Context,
	provider types.CloudProvider,
	start, end time.Time,
) (map[time.Time][]types.ServiceEstimate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT usage_date, account_id, account_name, service, region,
		       kilowatt_hours, co2e_kg, cost
		FROM estimate_cache
		WHERE provider = $1
		  AND usage_date >= $2
		  AND usage_date <= $3
		ORDER BY usage_date ASC`, string(provider), start, end)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query estimate cache", err)
	}
	defer rows.Close()

	byDay := make(map[time.Time][]types.ServiceEstimate)
	for rows.Next() {
		var (
			day time.Time
			est types.ServiceEstimate
		)
		if err := rows.Scan(
			&day,
			&est.AccountID,
			&est.AccountName,
			&est.Service,
			&est.Region,
			&est.KilowattHours,
			&est.Co2eKg,
			&est.Cost,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan estimate cache row", err)
		}
		est.Provider = provider
		day = day.UTC()
		byDay[day] = append(byDay[day], est)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating estimate cache rows", err)
	}

	return byDay, nil
}

// Put stores the computed service estimates for one provider-day, replacing
// any previous entry for the same (provider, day, account, service, region)
// key.
func (r *EstimateCacheRepo) Put(
	ctx context.Context,
	provider types.CloudProvider,
	day time.Time,
	estimates []types.ServiceEstimate,
) error {
	for _, est := range estimates {
		_, err := r.db.Exec(ctx, `
			INSERT INTO estimate_cache
				(provider, usage_date, account_id, account_name, service, region,
				 kilowatt_hours, co2e_kg, cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (provider, usage_date, account_id, service, region)
			DO UPDATE SET kilowatt_hours = EXCLUDED.kilowatt_hours,
			              co2e_kg = EXCLUDED.co2e_kg,
			              cost = EXCLUDED.cost,
			              account_name = EXCLUDED.account_name`,
			string(provider), day, est.AccountID, est.AccountName, est.Service,
			est.Region, est.KilowattHours, est.Co2eKg, est.Cost)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert estimate cache row", err)
		}
	}
	return nil
}
