package pricing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadTiers reads the discount tier table from Postgres in bracket order.
// An empty table is not an error; callers substitute the compiled-in table
// through TiersOrDefault. The result still has to pass NewDiscountEngine.
func LoadTiers(ctx context.Context, pool *pgxpool.Pool) ([]Tier, error) {
	const query = `
		SELECT name, min_volume, max_volume, rate_bps
		FROM discount_tiers
		ORDER BY min_volume`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []Tier
	for rows.Next() {
		var t Tier
		if err := rows.Scan(&t.Name, &t.MinVolume, &t.MaxVolume, &t.RateBps); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// TiersOrDefault falls back to the compiled-in tier table when the database
// holds none.
func TiersOrDefault(tiers []Tier) []Tier {
	if len(tiers) == 0 {
		return DefaultTiers()
	}
	return tiers
}
