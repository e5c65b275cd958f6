package db

import (
	"context"

	"carbonview/internal/types"
)

// InstanceRepo provides data access for the compute_instances table, the
// inventory of running instances consumed by the recommendation engine.
type InstanceRepo struct {
	db DBTX
}

// NewInstanceRepo creates a new InstanceRepo backed by the given database
// connection (pool or transaction).
func NewInstanceRepo(db DBTX) *InstanceRepo {
	return &InstanceRepo{db: db}
}

// ListByProvider returns the instance inventory for one cloud provider,
// ordered by account and instance ID for stable output.
func (r *InstanceRepo) ListByProvider(ctx context.Context, provider types.CloudProvider) ([]types.ComputeInstance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT provider, account_id, account_name, instance_id, instance_type,
		       region, hourly_cost
		FROM compute_instances
		WHERE provider = $1
		ORDER BY account_id ASC, instance_id ASC`, string(provider))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query compute instances", err)
	}
	defer rows.Close()

	var instances []types.ComputeInstance
	for rows.Next() {
		var inst types.ComputeInstance
		if err := rows.Scan(
			&inst.Provider,
			&inst.AccountID,
			&inst.AccountName,
			&inst.InstanceID,
			&inst.InstanceType,
			&inst.Region,
			&inst.HourlyCost,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan compute instance row", err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating compute instance rows", err)
	}

	return instances, nil
}
