package catalog

import "time"

// Course is a unit of study offered by the institution.
type Course struct {
	ID          int64
	Code        string
	Name        string
	Description string
	Credits     int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Section is a scheduled offering of a course for a term, taught by the
// professor profile it references.
type Section struct {
	ID                 int64
	CourseID           int64
	Code               string
	Term               string
	Capacity           int
	ProfessorProfileID int64
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ListFilters narrows course and section listings.
type ListFilters struct {
	Search   string
	Active   *bool
	CourseID *int64
}
