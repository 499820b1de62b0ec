package catalog

import (
	"context"
	"strings"

	"github.com/academe-sis/academe/internal/authz"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	ListCourses(ctx context.Context, filters ListFilters) ([]Course, error)
	GetCourse(ctx context.Context, id int64) (Course, error)
	CreateCourse(ctx context.Context, c Course) (Course, error)
	UpdateCourse(ctx context.Context, id int64, c Course) error
	ListSections(ctx context.Context, filters ListFilters) ([]Section, error)
	GetSection(ctx context.Context, id int64) (Section, error)
	CreateSection(ctx context.Context, s Section) (Section, error)
	AssignProfessor(ctx context.Context, sectionID, professorProfileID int64) error
	ProfileCategory(ctx context.Context, profileID int64) (authz.Category, error)
}

// Service holds course and section business rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListCourses returns courses matching the filters.
func (s *Service) ListCourses(ctx context.Context, filters ListFilters) ([]Course, error) {
	return s.repo.ListCourses(ctx, filters)
}

// GetCourse fetches one course.
func (s *Service) GetCourse(ctx context.Context, id int64) (Course, error) {
	return s.repo.GetCourse(ctx, id)
}

// CreateCourse validates and inserts a course.
func (s *Service) CreateCourse(ctx context.Context, c Course) (Course, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if err := validateCourse(c); err != nil {
		return Course{}, err
	}
	return s.repo.CreateCourse(ctx, c)
}

// UpdateCourse validates and rewrites a course.
func (s *Service) UpdateCourse(ctx context.Context, id int64, c Course) error {
	if err := validateCourse(c); err != nil {
		return err
	}
	return s.repo.UpdateCourse(ctx, id, c)
}

// ListSections returns sections matching the filters.
func (s *Service) ListSections(ctx context.Context, filters ListFilters) ([]Section, error) {
	return s.repo.ListSections(ctx, filters)
}

// GetSection fetches one section.
func (s *Service) GetSection(ctx context.Context, id int64) (Section, error) {
	return s.repo.GetSection(ctx, id)
}

// CreateSection validates the section and its professor profile, then
// inserts it.
func (s *Service) CreateSection(ctx context.Context, sec Section) (Section, error) {
	sec.Code = strings.ToUpper(strings.TrimSpace(sec.Code))
	if err := validateSection(sec); err != nil {
		return Section{}, err
	}
	if err := s.requireProfessorProfile(ctx, sec.ProfessorProfileID); err != nil {
		return Section{}, err
	}
	return s.repo.CreateSection(ctx, sec)
}

// AssignProfessor repoints a section at another professor profile.
func (s *Service) AssignProfessor(ctx context.Context, sectionID, professorProfileID int64) error {
	if err := s.requireProfessorProfile(ctx, professorProfileID); err != nil {
		return err
	}
	return s.repo.AssignProfessor(ctx, sectionID, professorProfileID)
}

// requireProfessorProfile refuses profiles whose role name does not classify
// as professor-like. Sections are always taught through a professor profile,
// never directly by a user.
func (s *Service) requireProfessorProfile(ctx context.Context, profileID int64) error {
	category, err := s.repo.ProfileCategory(ctx, profileID)
	if err != nil {
		return err
	}
	if category != authz.CategoryProfessor {
		return ErrNotProfessor
	}
	return nil
}

func validateCourse(c Course) error {
	if c.Code == "" {
		return ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if c.Name == "" {
		return ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if c.Credits <= 0 {
		return ValidationError{Field: "credits", Reason: "must be positive"}
	}
	return nil
}

func validateSection(sec Section) error {
	if sec.CourseID <= 0 {
		return ValidationError{Field: "course_id", Reason: "must reference a course"}
	}
	if sec.Code == "" {
		return ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if sec.Term == "" {
		return ValidationError{Field: "term", Reason: "must not be empty"}
	}
	if sec.Capacity <= 0 {
		return ValidationError{Field: "capacity", Reason: "must be positive"}
	}
	return nil
}
