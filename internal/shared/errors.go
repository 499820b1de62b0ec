package shared

import "errors"

// Sentinel errors shared across modules. Repositories translate driver
// errors into these so handlers can map them to HTTP statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCSRFTokenMissing   = errors.New("csrf token missing")
	ErrCSRFTokenMismatch  = errors.New("csrf token mismatch")
)
