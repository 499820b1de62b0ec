package enrollment

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested enrollment or section does not exist.
	ErrNotFound = errors.New("enrollment: not found")
	// ErrEnrollmentCancelled indicates grading was attempted on a cancelled enrollment.
	ErrEnrollmentCancelled = errors.New("enrollment: cancelled enrollments cannot be graded")
	// ErrNotSectionProfessor indicates the actor has no profile teaching the enrollment's section.
	ErrNotSectionProfessor = errors.New("enrollment: no profile is the section professor")
	// ErrDuplicate indicates the student profile is already enrolled in the section.
	ErrDuplicate = errors.New("enrollment: already enrolled in section")
	// ErrAlreadyCancelled indicates a cancel on an enrollment that is already cancelled.
	ErrAlreadyCancelled = errors.New("enrollment: already cancelled")
)

// InvalidGradeError reports a grade outside the accepted scale. No mutation
// occurs when it is returned.
type InvalidGradeError struct {
	Value float64
}

func (e *InvalidGradeError) Error() string {
	return fmt.Sprintf("enrollment: grade %.2f outside [%.0f, %.0f]", e.Value, GradeMin, GradeMax)
}
