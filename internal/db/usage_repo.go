package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carbonview/internal/types"
)

// UsageRepo provides data access for the usage_line_items table, the raw
// cost-and-usage rows ingested from cloud billing exports.
type UsageRepo struct {
	db DBTX
}

// NewUsageRepo creates a new UsageRepo backed by the given database
// connection (pool or transaction).
func NewUsageRepo(db DBTX) *UsageRepo {
	return &UsageRepo{db: db}
}

// UsageFilter narrows a usage query. Start and End are inclusive calendar
// dates; empty slices and maps mean "no filter on this dimension".
type UsageFilter struct {
	Provider types.CloudProvider
	Start    time.Time
	End      time.Time
	Accounts []string
	Services []string
	Regions  []string
	Tags     map[string]string
}

// Query retrieves the usage line items matching the filter, ordered by
// usage date. Account, service, and region filters use set membership; the
// tag filter requires every given key/value pair to be present on the row
// (jsonb containment).
func (r *UsageRepo) Query(ctx context.Context, f UsageFilter) ([]types.UsageLineItem, error) {
	var (
		conditions []string
		args       []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions = append(conditions, "provider = "+arg(string(f.Provider)))
	conditions = append(conditions, "usage_date >= "+arg(f.Start))
	conditions = append(conditions, "usage_date <= "+arg(f.End))

	if len(f.Accounts) > 0 {
		conditions = append(conditions, "account_id = ANY("+arg(f.Accounts)+")")
	}
	if len(f.Services) > 0 {
		conditions = append(conditions, "service = ANY("+arg(f.Services)+")")
	}
	if len(f.Regions) > 0 {
		conditions = append(conditions, "region = ANY("+arg(f.Regions)+")")
	}
	if len(f.Tags) > 0 {
		tagJSON, err := json.Marshal(f.Tags)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode tag filter", err)
		}
		conditions = append(conditions, "tags @> "+arg(string(tagJSON))+"::jsonb")
	}

	query := `
		SELECT provider, account_id, account_name, service, region,
		       usage_date, usage_amount, usage_unit, cost, tags
		FROM usage_line_items
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY usage_date ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query usage line items", err)
	}
	defer rows.Close()

	var items []types.UsageLineItem
	for rows.Next() {
		var (
			item    types.UsageLineItem
			tagsRaw []byte
		)
		if err := rows.Scan(
			&item.Provider,
			&item.AccountID,
			&item.AccountName,
			&item.Service,
			&item.Region,
			&item.UsageDate,
			&item.UsageAmount,
			&item.UsageUnit,
			&item.Cost,
			&tagsRaw,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan usage line item row", err)
		}
		if len(tagsRaw) > 0 {
			if err := json.Unmarshal(tagsRaw, &item.Tags); err != nil {
				return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to decode usage line item tags", err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating usage line item rows", err)
	}

	return items, nil
}

// Coverage reports the earliest and latest usage dates present for the
// provider. ok is false when the store holds no rows for the provider.
func (r *UsageRepo) Coverage(ctx context.Context, provider types.CloudProvider) (earliest, latest time.Time, ok bool, err error) {
	row := r.db.QueryRow(ctx, `
		SELECT MIN(usage_date), MAX(usage_date)
		FROM usage_line_items
		WHERE provider = $1`, string(provider))

	var minDate, maxDate *time.Time
	if err := row.Scan(&minDate, &maxDate); err != nil {
		return time.Time{}, time.Time{}, false, types.NewAppError(types.ErrCodeInternalDB, "failed to query usage coverage", err)
	}
	if minDate == nil || maxDate == nil {
		return time.Time{}, time.Time{}, false, nil
	}
	return *minDate, *maxDate, true, nil
}
