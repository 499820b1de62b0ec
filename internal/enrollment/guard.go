package enrollment

import "github.com/academe-sis/academe/internal/authz"

// viewPermissions are checked in order of specificity; the order is cosmetic,
// any one of them granting access is enough.
var viewPermissions = []string{
	authz.PermViewOwnEnrollment,
	authz.PermViewSectionEnrollments,
	authz.PermViewAllEnrollments,
}

// viewPredicate ties the three view permissions to a concrete enrollment.
func viewPredicate(e Enrollment, section Section) authz.ObjectPredicate {
	return func(p authz.Profile, codename string) bool {
		switch codename {
		case authz.PermViewOwnEnrollment:
			return p.ID == e.StudentProfileID
		case authz.PermViewSectionEnrollments:
			return p.ID == section.ProfessorProfileID
		case authz.PermViewAllEnrollments:
			return true
		}
		return false
	}
}

// gradePredicate: the profile teaches the section and the enrollment is not
// cancelled. A cancelled enrollment can never transition into a graded state.
func gradePredicate(e Enrollment, section Section) authz.ObjectPredicate {
	return func(p authz.Profile, codename string) bool {
		return p.ID == section.ProfessorProfileID && e.Status != StatusCancelled
	}
}

// CanBeViewedBy reports whether any of the actor's profiles may see the
// enrollment. section must be the enrollment's section.
func CanBeViewedBy(actor authz.Actor, e Enrollment, section Section) bool {
	allowed, _ := DecideView(actor, e, section)
	return allowed
}

// DecideView is CanBeViewedBy with a denial reason for callers that render
// feedback.
func DecideView(actor authz.Actor, e Enrollment, section Section) (bool, authz.DenialReason) {
	reason := authz.DenyNoMatchingProfile
	for _, codename := range viewPermissions {
		allowed, r := authz.Decide(actor, codename, viewPredicate(e, section))
		if allowed {
			return true, ""
		}
		if r == authz.DenyObjectMismatch {
			reason = authz.DenyObjectMismatch
		}
	}
	return false, reason
}

// CanBeGradedBy reports whether the actor may grade the enrollment. A
// non-zero profileHint restricts the check to that single profile, which
// disambiguates actors holding several professor profiles; the hint must name
// one of the actor's own profiles or the answer is simply false.
func CanBeGradedBy(actor authz.Actor, e Enrollment, section Section, profileHint int64) bool {
	if profileHint != 0 {
		p, ok := actor.Profile(profileHint)
		if !ok {
			return false
		}
		hinted := authz.Actor{UserID: actor.UserID, Superuser: actor.Superuser, Profiles: []authz.Profile{p}}
		return authz.Authorize(hinted, authz.PermGradeEnrollment, gradePredicate(e, section))
	}
	return authz.Authorize(actor, authz.PermGradeEnrollment, gradePredicate(e, section))
}

// ResolveGradingProfile returns the specific profile that would perform the
// grading, so the workflow can stamp graded_by with a real identity. The
// superuser bypass deliberately does not apply here: grading always needs a
// qualifying profile to attribute.
func ResolveGradingProfile(actor authz.Actor, e Enrollment, section Section) (authz.Profile, bool) {
	pred := gradePredicate(e, section)
	for _, p := range actor.ActiveProfiles() {
		if p.HasPermission(authz.PermGradeEnrollment) && pred(p, authz.PermGradeEnrollment) {
			return p, true
		}
	}
	return authz.Profile{}, false
}
