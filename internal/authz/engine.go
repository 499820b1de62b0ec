package authz

// ObjectPredicate narrows a permission check to a specific record. It reports
// whether profile p satisfies the permission for that record; a nil predicate
// means the permission carries no object constraint.
type ObjectPredicate func(p Profile, codename string) bool

// Authorize reports whether the actor may exercise the permission, optionally
// scoped by an object predicate.
//
// The function is pure: it mutates nothing, and the answer is an OR over the
// actor's active profiles, so the order profiles arrive in can never change
// the result. Superusers pass unconditionally; that bypass is the one
// documented escape hatch in the model.
func Authorize(actor Actor, codename string, object ObjectPredicate) bool {
	allowed, _ := Decide(actor, codename, object)
	return allowed
}

// DenialReason is the closed set of reasons a check can fail, for callers
// that render feedback rather than just a 403.
type DenialReason string

const (
	DenyNoMatchingProfile DenialReason = "no_matching_profile"
	DenyObjectMismatch    DenialReason = "object_mismatch"
)

// Decide is Authorize with a reason code. On denial the reason is
// DenyObjectMismatch when some profile held the permission but failed the
// object predicate, DenyNoMatchingProfile otherwise.
func Decide(actor Actor, codename string, object ObjectPredicate) (bool, DenialReason) {
	if actor.Superuser {
		return true, ""
	}
	permissionHeld := false
	for _, p := range actor.Profiles {
		if !p.HasPermission(codename) {
			continue
		}
		permissionHeld = true
		if object == nil || object(p, codename) {
			return true, ""
		}
	}
	if permissionHeld {
		return false, DenyObjectMismatch
	}
	return false, DenyNoMatchingProfile
}
