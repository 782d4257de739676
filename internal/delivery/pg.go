package delivery

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadZones reads the delivery zone table from Postgres. An empty table is
// not an error; callers substitute the compiled-in table through
// ZonesOrDefault. The result still has to pass NewCalculator.
func LoadZones(ctx context.Context, pool *pgxpool.Pool) ([]Zone, error) {
	const query = `
		SELECT id, name, base_cost_minor, estimated_time, free_delivery_threshold
		FROM delivery_zones
		ORDER BY id`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.BaseCost, &z.EstimatedTime, &z.FreeDeliveryThreshold); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// ZonesOrDefault falls back to the compiled-in zone table when the database
// holds none.
func ZonesOrDefault(zones []Zone) []Zone {
	if len(zones) == 0 {
		return DefaultZones()
	}
	return zones
}
