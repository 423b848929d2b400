package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository backed by
// the rider_profiles table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const profileColumns = `
	key, name, description, max_transfers, time_tolerance,
	transfer_preference, time_preference, cost_preference, eco_preference,
	icon, color, updated_at`

// Get retrieves a profile by key.
func (r *PostgresRepository) Get(ctx context.Context, key string) (*Profile, error) {
	query := `SELECT ` + profileColumns + `
		FROM rider_profiles
		WHERE key = $1
	`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns all profiles ordered by key.
func (r *PostgresRepository) List(ctx context.Context) ([]Profile, error) {
	query := `SELECT ` + profileColumns + `
		FROM rider_profiles
		ORDER BY key
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Upsert creates or updates a profile.
func (r *PostgresRepository) Upsert(ctx context.Context, p Profile) error {
	query := `
		INSERT INTO rider_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			max_transfers = EXCLUDED.max_transfers,
			time_tolerance = EXCLUDED.time_tolerance,
			transfer_preference = EXCLUDED.transfer_preference,
			time_preference = EXCLUDED.time_preference,
			cost_preference = EXCLUDED.cost_preference,
			eco_preference = EXCLUDED.eco_preference,
			icon = EXCLUDED.icon,
			color = EXCLUDED.color,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		p.Key, p.Name, p.Description, p.MaxTransfers, p.TimeTolerance,
		p.Transfer, p.Time, p.Cost, p.Eco,
		p.Icon, p.Color,
	)
	return err
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.Key,
		&p.Name,
		&p.Description,
		&p.MaxTransfers,
		&p.TimeTolerance,
		&p.Transfer,
		&p.Time,
		&p.Cost,
		&p.Eco,
		&p.Icon,
		&p.Color,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
