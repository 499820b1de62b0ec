package authz

// Profile binds a user to exactly one role, optionally linked to a student or
// teaching record. A user may hold any number of profiles at once; revoking a
// capability deactivates the profile instead of deleting it so historical
// grading attribution survives.
type Profile struct {
	ID          int64
	UserID      int64
	Role        *Role
	Active      bool
	StudentID   *int64
	ProfessorID *int64
}

// IsStudent reports whether the profile's role is student-classified.
func (p Profile) IsStudent() bool {
	return p.Role != nil && p.Role.Category == CategoryStudent
}

// IsProfessor reports whether the profile's role is professor-classified.
func (p Profile) IsProfessor() bool {
	return p.Role != nil && p.Role.Category == CategoryProfessor
}

// HasPermission reports whether this profile grants the codename. Inactive
// profiles grant nothing.
func (p Profile) HasPermission(codename string) bool {
	return p.Active && p.Role.HasPermission(codename)
}

// Actor is the authenticated identity handed in by the session layer: the
// superuser flag plus every profile the user currently holds.
type Actor struct {
	UserID    int64
	Superuser bool
	Profiles  []Profile
}

// ActiveProfiles returns the profiles that participate in decisions.
func (a Actor) ActiveProfiles() []Profile {
	out := make([]Profile, 0, len(a.Profiles))
	for _, p := range a.Profiles {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Profile returns the actor's profile with the given id, if it holds one.
func (a Actor) Profile(id int64) (Profile, bool) {
	for _, p := range a.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}
