package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies a role by its place in the academic hierarchy. It is
// computed once when the registry is built, never re-derived per check.
type Category int

const (
	CategoryOther Category = iota
	CategoryStudent
	CategoryProfessor
)

func (c Category) String() string {
	switch c {
	case CategoryStudent:
		return "student"
	case CategoryProfessor:
		return "professor"
	default:
		return "other"
	}
}

// The two name lists are configuration, not data: they mirror the seeded role
// set and decide which roles count as student-like or professor-like.
var (
	studentRoleNames = []string{
		"Student",
		"Undergraduate Student",
		"Graduate Student",
		"PhD Student",
		"PhD Candidate",
	}
	professorRoleNames = []string{
		"Professor",
		"Associate Professor",
		"Full Professor",
		"Teaching Assistant",
		"Adjunct Professor",
		"Visiting Professor",
	}
)

// ClassifyRoleName maps a role name to its category.
func ClassifyRoleName(name string) Category {
	for _, n := range studentRoleNames {
		if strings.EqualFold(n, name) {
			return CategoryStudent
		}
	}
	for _, n := range professorRoleNames {
		if strings.EqualFold(n, name) {
			return CategoryProfessor
		}
	}
	return CategoryOther
}

// Role is a named bundle of permissions. Roles are owned by the Registry and
// referenced, never owned, by profiles.
type Role struct {
	Name        string
	Description string
	Active      bool
	Category    Category

	permissions map[string]struct{}
}

// HasPermission reports whether the role grants the codename. Unknown or
// empty codenames deny; they are never an error.
func (r *Role) HasPermission(codename string) bool {
	if r == nil || !r.Active {
		return false
	}
	_, ok := r.permissions[codename]
	return ok
}

// Permissions returns the granted codenames sorted for stable output.
func (r *Role) Permissions() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.permissions))
	for codename := range r.permissions {
		out = append(out, codename)
	}
	sort.Strings(out)
	return out
}

// RoleSeed is the raw role definition loaded from storage at startup.
type RoleSeed struct {
	Name        string
	Description string
	Active      bool
	Permissions []string
}

// Registry holds the process-wide role set. It is immutable after NewRegistry
// returns; a deploy (or restart) is the only way to change it.
type Registry struct {
	roles map[string]*Role
}

// NewRegistry validates and indexes the seeded roles. A role referencing a
// codename outside the catalog is a startup-time fatal condition.
func NewRegistry(seeds []RoleSeed) (*Registry, error) {
	roles := make(map[string]*Role, len(seeds))
	for _, seed := range seeds {
		name := strings.TrimSpace(seed.Name)
		if name == "" {
			return nil, fmt.Errorf("authz: role with empty name")
		}
		if _, exists := roles[name]; exists {
			return nil, fmt.Errorf("authz: duplicate role %q", name)
		}
		perms := make(map[string]struct{}, len(seed.Permissions))
		for _, codename := range seed.Permissions {
			if !KnownPermission(codename) {
				return nil, fmt.Errorf("authz: role %q references unknown permission %q", name, codename)
			}
			perms[codename] = struct{}{}
		}
		roles[name] = &Role{
			Name:        name,
			Description: seed.Description,
			Active:      seed.Active,
			Category:    ClassifyRoleName(name),
			permissions: perms,
		}
	}
	return &Registry{roles: roles}, nil
}

// Role looks up a role by name.
func (reg *Registry) Role(name string) (*Role, bool) {
	if reg == nil {
		return nil, false
	}
	role, ok := reg.roles[name]
	return role, ok
}

// Roles returns every registered role sorted by name.
func (reg *Registry) Roles() []*Role {
	if reg == nil {
		return nil
	}
	out := make([]*Role, 0, len(reg.roles))
	for _, role := range reg.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
