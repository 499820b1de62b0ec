package users

import "time"

// User represents an account in the academic system.
type User struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	IsActive    bool
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName returns the display name.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
