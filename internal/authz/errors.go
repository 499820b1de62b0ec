package authz

import (
	"errors"
	"fmt"
)

// ErrProfileNotFound indicates the actor holds no active profiles at all.
var ErrProfileNotFound = errors.New("authz: actor has no active profiles")

// PermissionDeniedError is a denial carrying its reason code. Denials are
// values, never panics: callers present the reason and retry or abandon.
type PermissionDeniedError struct {
	Codename string
	Reason   DenialReason
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("authz: permission %s denied (%s)", e.Codename, e.Reason)
}

// Denied builds a PermissionDeniedError for the codename and reason.
func Denied(codename string, reason DenialReason) error {
	return &PermissionDeniedError{Codename: codename, Reason: reason}
}
