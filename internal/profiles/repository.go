// Package profiles manages capability bindings: granting, revoking and
// loading the profiles that make up an actor.
package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-sis/academe/internal/shared"
)

// Row is a profile as stored, before the role reference is resolved against
// the registry.
type Row struct {
	ID          int64
	UserID      int64
	RoleName    string
	Active      bool
	StudentID   *int64
	ProfessorID *int64
	CreatedAt   time.Time
}

// UserFlags carries the account-level bits that shape an actor.
type UserFlags struct {
	IsActive    bool
	IsSuperuser bool
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const profileColumns = `p.id, p.user_id, r.name, p.is_active, p.student_id, p.professor_id, p.created_at`

// ListByUser returns every profile the user owns, active or not.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles p
		JOIN roles r ON r.id = p.role_id
		WHERE p.user_id = $1
		ORDER BY p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.UserID, &row.RoleName, &row.Active, &row.StudentID, &row.ProfessorID, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUserFlags fetches account flags for actor resolution.
func (r *Repository) GetUserFlags(ctx context.Context, userID int64) (UserFlags, error) {
	var flags UserFlags
	err := r.pool.QueryRow(ctx,
		`SELECT is_active, is_superuser FROM users WHERE id = $1`, userID,
	).Scan(&flags.IsActive, &flags.IsSuperuser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserFlags{}, shared.ErrNotFound
		}
		return UserFlags{}, err
	}
	return flags, nil
}

// Create inserts an active profile bound to the named role.
func (r *Repository) Create(ctx context.Context, userID int64, roleName string, studentID, professorID *int64) (Row, error) {
	var row Row
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, role_id, is_active, student_id, professor_id)
		SELECT $1, r.id, TRUE, $3, $4 FROM roles r WHERE r.name = $2
		RETURNING id, user_id, $2::text, is_active, student_id, professor_id, created_at`,
		userID, roleName, studentID, professorID,
	).Scan(&row.ID, &row.UserID, &row.RoleName, &row.Active, &row.StudentID, &row.ProfessorID, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, shared.ErrNotFound
		}
		return Row{}, err
	}
	return row, nil
}

// Deactivate revokes the profile without deleting it, so grade attribution
// keeps pointing at a real row.
func (r *Repository) Deactivate(ctx context.Context, profileID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
