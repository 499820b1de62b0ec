// Package roles loads the seeded role and permission data and builds the
// process-wide authz registry from it.
package roles

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-sis/academe/internal/authz"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoleSeeds returns every role with its granted permission codenames.
func (r *Repository) ListRoleSeeds(ctx context.Context) ([]authz.RoleSeed, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.name, r.description, r.is_active,
		       COALESCE(array_agg(p.codename) FILTER (WHERE p.codename IS NOT NULL), '{}')
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		GROUP BY r.id
		ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seeds []authz.RoleSeed
	for rows.Next() {
		var seed authz.RoleSeed
		if err := rows.Scan(&seed.Name, &seed.Description, &seed.Active, &seed.Permissions); err != nil {
			return nil, err
		}
		seeds = append(seeds, seed)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seeds, nil
}
