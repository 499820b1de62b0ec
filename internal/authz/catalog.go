// Package authz implements the permission-resolution core: the closed
// permission catalog, the immutable role registry, multi-profile actors and
// the pure decision engine that answers "may this actor do X (to Y)".
package authz

// Permission codenames understood by the engine. The catalog is closed and
// ships with the deployment; it is never extended at runtime.
const (
	PermViewOwnEnrollment      = "view_own_enrollment"
	PermViewSectionEnrollments = "view_section_enrollments"
	PermViewAllEnrollments     = "view_all_enrollments"
	PermGradeEnrollment        = "grade_enrollment"
	PermManageEnrollments      = "manage_enrollments"
	PermManageCourses          = "manage_courses"
	PermManageSections         = "manage_sections"
	PermManageUsers            = "manage_users"
)

// Permission describes an atomic named capability.
type Permission struct {
	Codename    string
	Description string
}

// Catalog returns every permission the engine understands, in a stable order.
func Catalog() []Permission {
	return []Permission{
		{PermViewOwnEnrollment, "Can view their own enrollments"},
		{PermViewSectionEnrollments, "Can view enrollments in their teaching sections"},
		{PermViewAllEnrollments, "Can view all enrollments in the system"},
		{PermGradeEnrollment, "Can grade student enrollments in their sections"},
		{PermManageEnrollments, "Can create, update, and delete enrollments"},
		{PermManageCourses, "Can create, update, and delete courses"},
		{PermManageSections, "Can create, update, and delete sections"},
		{PermManageUsers, "Can create, update, and delete users"},
	}
}

// KnownPermission reports whether codename is part of the catalog.
func KnownPermission(codename string) bool {
	for _, p := range Catalog() {
		if p.Codename == codename {
			return true
		}
	}
	return false
}
