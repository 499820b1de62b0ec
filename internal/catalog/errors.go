package catalog

import "errors"

var (
	// ErrDuplicateCode indicates a course or section code collision.
	ErrDuplicateCode = errors.New("catalog: code already in use")
	// ErrNotProfessor indicates the profile assigned to a section is not
	// professor-like.
	ErrNotProfessor = errors.New("catalog: profile is not a professor profile")
)

// ValidationError carries a field-level complaint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return "catalog: invalid " + e.Field + ": " + e.Reason
}
