package depot

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyota-labs/backend-fuel/internal/common"
)

// Location is a fuel depot served by the platform.
type Location struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactPhone string `json:"contactPhone,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
}

// Repo reads depot records from Postgres.
type Repo struct {
	Pool *pgxpool.Pool
}

// List returns all depots ordered by name.
func (r Repo) List(ctx context.Context) ([]Location, error) {
	if r.Pool == nil {
		return nil, errors.New("depot: pool not configured")
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT id, name, COALESCE(contact_phone, ''), COALESCE(contact_email, '') FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.ContactPhone, &loc.ContactEmail); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// Get returns one depot by identifier.
func (r Repo) Get(ctx context.Context, id string) (Location, error) {
	if r.Pool == nil {
		return Location{}, errors.New("depot: pool not configured")
	}
	var loc Location
	err := r.Pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(contact_phone, ''), COALESCE(contact_email, '') FROM locations WHERE id = $1`, id).
		Scan(&loc.ID, &loc.Name, &loc.ContactPhone, &loc.ContactEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, common.NewAppError("UNKNOWN_LOCATION", "depot does not exist", http.StatusNotFound, err)
		}
		return Location{}, err
	}
	return loc, nil
}
