// Package enrollment holds the enrollment records, the object-level
// authorization guard built on the authz engine, the visible-enrollment
// projection and the grade workflow.
package enrollment

import "time"

// Status enumerates enrollment payment states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// GradeMin and GradeMax bound the accepted grading scale.
const (
	GradeMin = 0.0
	GradeMax = 20.0
)

// Section is one offering of a course, taught by a single professor profile.
type Section struct {
	ID                 int64
	CourseID           int64
	Code               string
	ProfessorProfileID int64
}

// Enrollment registers a student profile in a section. The four grade fields
// form one unit: either all are set or none is, and only the grade workflow
// may write them.
type Enrollment struct {
	ID                int64
	StudentProfileID  int64
	SectionID         int64
	Status            Status
	Grade             *float64
	GradeNotes        *string
	GradedAt          *time.Time
	GradedByProfileID *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Graded reports whether the enrollment carries a grade stamp.
func (e Enrollment) Graded() bool {
	return e.Grade != nil && e.GradedAt != nil && e.GradedByProfileID != nil
}
