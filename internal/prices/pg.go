package prices

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
)

// PG resolves base prices from the price_lists table. The newest effective
// price wins; future-dated rows are ignored.
type PG struct {
	Pool *pgxpool.Pool
}

// Resolve implements Resolver.
func (p PG) Resolve(ctx context.Context, fuelType fuel.Type, locationID string) (BasePrice, error) {
	if p.Pool == nil {
		return BasePrice{}, errors.New("prices: pool not configured")
	}
	const query = `
		SELECT price_minor, effective_date
		FROM price_lists
		WHERE fuel_type = $1 AND location_id = $2 AND effective_date <= now()
		ORDER BY effective_date DESC
		LIMIT 1`
	var out BasePrice
	err := p.Pool.QueryRow(ctx, query, string(fuelType), locationID).Scan(&out.Price, &out.EffectiveDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BasePrice{}, ErrPriceNotFound
		}
		return BasePrice{}, err
	}
	return out, nil
}
