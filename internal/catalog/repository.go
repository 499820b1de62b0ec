package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/shared"
)

// PostgresRepository persists courses and sections.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgresRepository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const courseColumns = `id, code, name, description, credits, is_active, created_at, updated_at`

func scanCourse(row pgx.Row) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.Credits, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListCourses returns courses matching the filters.
func (r *PostgresRepository) ListCourses(ctx context.Context, filters ListFilters) ([]Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + n + ` OR code ILIKE $` + n + `)`
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		query += ` AND is_active = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCourse fetches one course.
func (r *PostgresRepository) GetCourse(ctx context.Context, id int64) (Course, error) {
	c, err := scanCourse(r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Course{}, shared.ErrNotFound
	}
	return c, err
}

// CreateCourse inserts a course.
func (r *PostgresRepository) CreateCourse(ctx context.Context, c Course) (Course, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO courses (code, name, description, credits, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING `+courseColumns,
		c.Code, c.Name, c.Description, c.Credits,
	).Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.Credits, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Course{}, ErrDuplicateCode
		}
		return Course{}, err
	}
	return c, nil
}

// UpdateCourse rewrites a course's mutable fields.
func (r *PostgresRepository) UpdateCourse(ctx context.Context, id int64, c Course) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE courses
		SET name = $2, description = $3, credits = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1`,
		id, c.Name, c.Description, c.Credits, c.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const sectionColumns = `id, course_id, code, term, capacity, professor_profile_id, is_active, created_at, updated_at`

func scanSection(row pgx.Row) (Section, error) {
	var s Section
	err := row.Scan(&s.ID, &s.CourseID, &s.Code, &s.Term, &s.Capacity, &s.ProfessorProfileID, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// ListSections returns sections matching the filters.
func (r *PostgresRepository) ListSections(ctx context.Context, filters ListFilters) ([]Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE 1=1`
	args := []any{}
	if filters.CourseID != nil {
		args = append(args, *filters.CourseID)
		query += ` AND course_id = $` + strconv.Itoa(len(args))
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		query += ` AND is_active = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSection fetches one section.
func (r *PostgresRepository) GetSection(ctx context.Context, id int64) (Section, error) {
	s, err := scanSection(r.pool.QueryRow(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Section{}, shared.ErrNotFound
	}
	return s, err
}

// CreateSection inserts a section.
func (r *PostgresRepository) CreateSection(ctx context.Context, s Section) (Section, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sections (course_id, code, term, capacity, professor_profile_id, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING `+sectionColumns,
		s.CourseID, s.Code, s.Term, s.Capacity, s.ProfessorProfileID,
	).Scan(&s.ID, &s.CourseID, &s.Code, &s.Term, &s.Capacity, &s.ProfessorProfileID, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Section{}, ErrDuplicateCode
		}
		return Section{}, err
	}
	return s, nil
}

// AssignProfessor repoints a section at another professor profile.
func (r *PostgresRepository) AssignProfessor(ctx context.Context, sectionID, professorProfileID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sections SET professor_profile_id = $2, updated_at = NOW() WHERE id = $1`,
		sectionID, professorProfileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ProfileCategory reports the role category behind a profile, used to reject
// assigning a non-professor profile to a section.
func (r *PostgresRepository) ProfileCategory(ctx context.Context, profileID int64) (authz.Category, error) {
	var roleName string
	err := r.pool.QueryRow(ctx, `
		SELECT ro.name
		FROM profiles p
		JOIN roles ro ON ro.id = p.role_id
		WHERE p.id = $1 AND p.is_active = TRUE`, profileID,
	).Scan(&roleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.CategoryOther, shared.ErrNotFound
		}
		return authz.CategoryOther, err
	}
	return authz.ClassifyRoleName(roleName), nil
}
