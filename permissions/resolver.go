package permissions

import "github.com/jrsteele09/go-dashboard-gateway/users"

// Resolver answers permission questions for one (possibly absent) user.
// The zero value denies everything.
type Resolver struct {
	user *users.User
}

func NewResolver(user *users.User) Resolver {
	return Resolver{user: user}
}

// Can is used by templates to hide controls the user may not use.
func (r Resolver) Can(perm Permission) bool {
	if r.user == nil {
		return false
	}
	return HasPermission(r.user.Role, perm)
}

// CanAny is true when at least one of perms is granted.
func (r Resolver) CanAny(perms ...Permission) bool {
	for _, p := range perms {
		if r.Can(p) {
			return true
		}
	}
	return false
}

func (r Resolver) Is(roles ...users.RoleType) bool {
	return HasRole(r.user, roles...)
}

func (r Resolver) Permissions() []Permission {
	if r.user == nil {
		return []Permission{}
	}
	return PermissionsForRole(r.user.Role)
}

func (r Resolver) Role() users.RoleType {
	if r.user == nil {
		return users.RoleUnknown
	}
	return r.user.Role
}
