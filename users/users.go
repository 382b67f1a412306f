package users

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the coarse-grained identity category of a dashboard user.
type RoleType string

const (
	RoleSuperAdmin RoleType = "super-admin" // Full access, every company
	RoleAdmin      RoleType = "admin"       // Full access within the business
	RoleManager    RoleType = "manager"     // Runs apartments, rooms, beds and registrations
	RoleUser       RoleType = "user"        // Read-only staff access

	RoleUnknown RoleType = ""
)

// AllRoles lists the canonical roles, most privileged first.
var AllRoles = []RoleType{RoleSuperAdmin, RoleAdmin, RoleManager, RoleUser}

// ParseRole maps a role string from the backend or a token claim onto the
// canonical set. Spellings the backend has used historically are accepted.
func ParseRole(s string) RoleType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "super-admin", "super_admin", "superadmin":
		return RoleSuperAdmin
	case "admin":
		return RoleAdmin
	case "manager":
		return RoleManager
	case "user":
		return RoleUser
	default:
		return RoleUnknown
	}
}

func (r RoleType) Valid() bool {
	return ParseRole(string(r)) == r && r != RoleUnknown
}

func (r RoleType) String() string {
	return string(r)
}

// User is the identity returned by the backend on login and by /auth/me.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	Role         RoleType `json:"role"`
	TenantID     string   `json:"tenantId,omitempty"` // Company the user belongs to
	PasswordHash string   `json:"-"`                  // Only populated by the development backend
}

// Valid reports whether the user carries an id and a canonical role.
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Role.Valid()
}

// Normalize rewrites the role onto the canonical set.
func (u *User) Normalize() {
	if u == nil {
		return
	}
	u.Role = ParseRole(string(u.Role))
}

// Public returns a copy without server-side secrets.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

// IsAdmin is true for the two roles that hold every permission.
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == RoleSuperAdmin || u.Role == RoleAdmin)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
