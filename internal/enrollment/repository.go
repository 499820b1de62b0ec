package enrollment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository provides PostgreSQL backed persistence.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const enrollmentColumns = `id, student_profile_id, section_id, status, grade, grade_notes, graded_at, graded_by_profile_id, created_at, updated_at`

func scanEnrollment(row pgx.Row) (*Enrollment, error) {
	var e Enrollment
	err := row.Scan(
		&e.ID, &e.StudentProfileID, &e.SectionID, &e.Status,
		&e.Grade, &e.GradeNotes, &e.GradedAt, &e.GradedByProfileID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetEnrollment fetches an enrollment by ID.
func (r *PostgresRepository) GetEnrollment(ctx context.Context, id int64) (*Enrollment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id)
	return scanEnrollment(row)
}

// GetSection fetches a section by ID.
func (r *PostgresRepository) GetSection(ctx context.Context, id int64) (*Section, error) {
	var s Section
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, code, professor_profile_id FROM sections WHERE id = $1`, id,
	).Scan(&s.ID, &s.CourseID, &s.Code, &s.ProfessorProfileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListVisible fetches the enrollments matching the explicit filter the
// authorization core produced. The query never interprets permissions.
func (r *PostgresRepository) ListVisible(ctx context.Context, filter VisibleFilter) ([]Enrollment, error) {
	if filter.Empty() {
		return []Enrollment{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE $1::boolean
		   OR student_profile_id = ANY($2::bigint[])
		   OR section_id IN (SELECT id FROM sections WHERE professor_profile_id = ANY($3::bigint[]))
		ORDER BY id`,
		filter.All, filter.StudentProfileIDs, filter.ProfessorProfileIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := []Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Create inserts a PENDING enrollment.
func (r *PostgresRepository) Create(ctx context.Context, studentProfileID, sectionID int64) (*Enrollment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO enrollments (student_profile_id, section_id, status)
		VALUES ($1, $2, $3)
		RETURNING `+enrollmentColumns,
		studentProfileID, sectionID, StatusPending)
	e, err := scanEnrollment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return e, nil
}

// UpdateStatus transitions the enrollment status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) (*Enrollment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE enrollments SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+enrollmentColumns,
		id, status)
	return scanEnrollment(row)
}

// StampGrade writes the four grade fields in one UPDATE, so concurrent
// readers only ever observe a fully-set or fully-unset stamp.
func (r *PostgresRepository) StampGrade(ctx context.Context, id int64, grade float64, notes string, gradedAt time.Time, gradedByProfileID int64) (*Enrollment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE enrollments
		SET grade = $2, grade_notes = $3, graded_at = $4, graded_by_profile_id = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+enrollmentColumns,
		id, grade, notes, gradedAt, gradedByProfileID)
	return scanEnrollment(row)
}
