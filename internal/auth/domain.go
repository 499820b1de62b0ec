package auth

import "time"

// User is the account row consulted during login. Profile and role data
// live in the profiles module; auth only needs the credential fields.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
