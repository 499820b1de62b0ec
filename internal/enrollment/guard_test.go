package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academe-sis/academe/internal/authz"
)

func testRegistry(t *testing.T) *authz.Registry {
	t.Helper()
	reg, err := authz.NewRegistry([]authz.RoleSeed{
		{Name: "Student", Active: true, Permissions: []string{authz.PermViewOwnEnrollment}},
		{Name: "Professor", Active: true, Permissions: []string{authz.PermViewSectionEnrollments, authz.PermGradeEnrollment}},
		{Name: "Teaching Assistant", Active: true, Permissions: []string{authz.PermViewSectionEnrollments, authz.PermGradeEnrollment}},
		{Name: "Academic Coordinator", Active: true, Permissions: []string{authz.PermViewAllEnrollments, authz.PermManageEnrollments}},
	})
	require.NoError(t, err)
	return reg
}

func roleOf(t *testing.T, reg *authz.Registry, name string) *authz.Role {
	t.Helper()
	role, ok := reg.Role(name)
	require.True(t, ok)
	return role
}

// Scenario from the product spec: one user is simultaneously the student of
// e1 (profile A) and the professor of e1's section (profile B).
func TestDualProfileActor(t *testing.T) {
	reg := testRegistry(t)
	profileA := authz.Profile{ID: 1, UserID: 100, Role: roleOf(t, reg, "Student"), Active: true}
	profileB := authz.Profile{ID: 2, UserID: 100, Role: roleOf(t, reg, "Professor"), Active: true}
	actor := authz.Actor{UserID: 100, Profiles: []authz.Profile{profileA, profileB}}

	section := Section{ID: 10, CourseID: 1, Code: "CS101-A", ProfessorProfileID: 2}
	e1 := Enrollment{ID: 50, StudentProfileID: 1, SectionID: 10, Status: StatusPaid}

	assert.True(t, CanBeViewedBy(actor, e1, section))
	assert.True(t, CanBeGradedBy(actor, e1, section, 0))

	grader, ok := ResolveGradingProfile(actor, e1, section)
	require.True(t, ok)
	assert.Equal(t, profileB.ID, grader.ID)
}

func TestWrongProfessorDenied(t *testing.T) {
	reg := testRegistry(t)
	profileC := authz.Profile{ID: 3, UserID: 200, Role: roleOf(t, reg, "Professor"), Active: true}
	actor := authz.Actor{UserID: 200, Profiles: []authz.Profile{profileC}}

	// Profile C teaches section 11, not section 10.
	section := Section{ID: 10, CourseID: 1, Code: "CS101-A", ProfessorProfileID: 2}
	e1 := Enrollment{ID: 50, StudentProfileID: 1, SectionID: 10, Status: StatusPaid}

	assert.False(t, CanBeGradedBy(actor, e1, section, 0))
	_, ok := ResolveGradingProfile(actor, e1, section)
	assert.False(t, ok)
	assert.False(t, CanBeViewedBy(actor, e1, section))
}

func TestProfileHintRestrictsCheck(t *testing.T) {
	reg := testRegistry(t)
	ta := authz.Profile{ID: 4, UserID: 300, Role: roleOf(t, reg, "Teaching Assistant"), Active: true}
	prof := authz.Profile{ID: 5, UserID: 300, Role: roleOf(t, reg, "Professor"), Active: true}
	actor := authz.Actor{UserID: 300, Profiles: []authz.Profile{ta, prof}}

	section := Section{ID: 20, CourseID: 2, Code: "MA201-B", ProfessorProfileID: 5}
	e := Enrollment{ID: 60, StudentProfileID: 9, SectionID: 20, Status: StatusPending}

	assert.True(t, CanBeGradedBy(actor, e, section, 0))
	assert.True(t, CanBeGradedBy(actor, e, section, 5))
	// The TA profile does not teach this section.
	assert.False(t, CanBeGradedBy(actor, e, section, 4))
	// A hint naming a profile the actor does not own is false, not an error.
	assert.False(t, CanBeGradedBy(actor, e, section, 999))
}

func TestCancelledEnrollmentNotGradeable(t *testing.T) {
	reg := testRegistry(t)
	prof := authz.Profile{ID: 2, UserID: 100, Role: roleOf(t, reg, "Professor"), Active: true}
	actor := authz.Actor{UserID: 100, Profiles: []authz.Profile{prof}}

	section := Section{ID: 10, ProfessorProfileID: 2}
	e := Enrollment{ID: 50, StudentProfileID: 1, SectionID: 10, Status: StatusCancelled}

	assert.False(t, CanBeGradedBy(actor, e, section, 0))
	_, ok := ResolveGradingProfile(actor, e, section)
	assert.False(t, ok)
}

func TestCoordinatorSeesEverything(t *testing.T) {
	reg := testRegistry(t)
	coord := authz.Profile{ID: 7, UserID: 400, Role: roleOf(t, reg, "Academic Coordinator"), Active: true}
	actor := authz.Actor{UserID: 400, Profiles: []authz.Profile{coord}}

	section := Section{ID: 10, ProfessorProfileID: 2}
	e := Enrollment{ID: 50, StudentProfileID: 1, SectionID: 10, Status: StatusPaid}

	assert.True(t, CanBeViewedBy(actor, e, section))
	assert.False(t, CanBeGradedBy(actor, e, section, 0))
}

// The projection filter and the view predicate must answer identically for
// every enrollment.
func TestVisibleFilterMatchesViewPredicate(t *testing.T) {
	reg := testRegistry(t)

	sections := []Section{
		{ID: 10, ProfessorProfileID: 2},
		{ID: 11, ProfessorProfileID: 3},
		{ID: 12, ProfessorProfileID: 99},
	}
	enrollments := []Enrollment{
		{ID: 1, StudentProfileID: 1, SectionID: 10, Status: StatusPaid},
		{ID: 2, StudentProfileID: 8, SectionID: 10, Status: StatusPending},
		{ID: 3, StudentProfileID: 1, SectionID: 11, Status: StatusCancelled},
		{ID: 4, StudentProfileID: 9, SectionID: 12, Status: StatusPaid},
	}
	sectionByID := map[int64]Section{}
	for _, s := range sections {
		sectionByID[s.ID] = s
	}

	actors := []authz.Actor{
		{UserID: 100, Profiles: []authz.Profile{
			{ID: 1, UserID: 100, Role: roleOf(t, reg, "Student"), Active: true},
			{ID: 2, UserID: 100, Role: roleOf(t, reg, "Professor"), Active: true},
		}},
		{UserID: 200, Profiles: []authz.Profile{
			{ID: 3, UserID: 200, Role: roleOf(t, reg, "Professor"), Active: true},
		}},
		{UserID: 300, Profiles: []authz.Profile{
			{ID: 4, UserID: 300, Role: roleOf(t, reg, "Teaching Assistant"), Active: false},
		}},
		{UserID: 400, Profiles: []authz.Profile{
			{ID: 7, UserID: 400, Role: roleOf(t, reg, "Academic Coordinator"), Active: true},
		}},
		{UserID: 500, Superuser: true},
		{UserID: 600},
	}

	for _, actor := range actors {
		filter := BuildVisibleFilter(actor)
		for _, e := range enrollments {
			section := sectionByID[e.SectionID]
			assert.Equal(t,
				CanBeViewedBy(actor, e, section),
				matchesFilter(filter, e, section),
				"actor %d enrollment %d", actor.UserID, e.ID)
		}
	}
}

// matchesFilter mirrors the repository's WHERE clause.
func matchesFilter(f VisibleFilter, e Enrollment, section Section) bool {
	if f.All {
		return true
	}
	for _, id := range f.StudentProfileIDs {
		if e.StudentProfileID == id {
			return true
		}
	}
	for _, id := range f.ProfessorProfileIDs {
		if section.ProfessorProfileID == id {
			return true
		}
	}
	return false
}
