package permissions

import (
	"slices"
	"sort"

	"github.com/jrsteele09/go-dashboard-gateway/users"
)

// Permission is a fine-grained capability named "<resource>:<action>".
type Permission string

const (
	CompanyCreate Permission = "company:create"
	CompanyRead   Permission = "company:read"
	CompanyUpdate Permission = "company:update"
	CompanyDelete Permission = "company:delete"

	ApartmentCreate Permission = "apartment:create"
	ApartmentRead   Permission = "apartment:read"
	ApartmentUpdate Permission = "apartment:update"
	ApartmentDelete Permission = "apartment:delete"

	RoomCreate Permission = "room:create"
	RoomRead   Permission = "room:read"
	RoomUpdate Permission = "room:update"
	RoomDelete Permission = "room:delete"

	BedCreate Permission = "bed:create"
	BedRead   Permission = "bed:read"
	BedUpdate Permission = "bed:update"
	BedDelete Permission = "bed:delete"

	InventoryCreate Permission = "inventory:create"
	InventoryRead   Permission = "inventory:read"
	InventoryUpdate Permission = "inventory:update"
	InventoryDelete Permission = "inventory:delete"

	RegistrationCreate Permission = "registration:create"
	RegistrationRead   Permission = "registration:read"
	RegistrationUpdate Permission = "registration:update"
	RegistrationDelete Permission = "registration:delete"

	PaymentCreate Permission = "payment:create"
	PaymentRead   Permission = "payment:read"
	PaymentUpdate Permission = "payment:update"
	PaymentDelete Permission = "payment:delete"

	InvoiceCreate Permission = "invoice:create"
	InvoiceRead   Permission = "invoice:read"
	InvoiceUpdate Permission = "invoice:update"
	InvoiceDelete Permission = "invoice:delete"

	UserCreate Permission = "user:create"
	UserRead   Permission = "user:read"
	UserUpdate Permission = "user:update"
	UserDelete Permission = "user:delete"

	SettingsRead   Permission = "settings:read"
	SettingsUpdate Permission = "settings:update"
)

// All is every permission the dashboard knows about.
var All = []Permission{
	CompanyCreate, CompanyRead, CompanyUpdate, CompanyDelete,
	ApartmentCreate, ApartmentRead, ApartmentUpdate, ApartmentDelete,
	RoomCreate, RoomRead, RoomUpdate, RoomDelete,
	BedCreate, BedRead, BedUpdate, BedDelete,
	InventoryCreate, InventoryRead, InventoryUpdate, InventoryDelete,
	RegistrationCreate, RegistrationRead, RegistrationUpdate, RegistrationDelete,
	PaymentCreate, PaymentRead, PaymentUpdate, PaymentDelete,
	InvoiceCreate, InvoiceRead, InvoiceUpdate, InvoiceDelete,
	UserCreate, UserRead, UserUpdate, UserDelete,
	SettingsRead, SettingsUpdate,
}

type permissionSet map[Permission]struct{}

// rolePermissions is built once at init and never written afterwards.
var rolePermissions = map[users.RoleType]permissionSet{
	users.RoleSuperAdmin: setOf(All...),
	users.RoleAdmin:      setOf(All...),
	users.RoleManager: setOf(
		ApartmentCreate, ApartmentRead, ApartmentUpdate, ApartmentDelete,
		RoomCreate, RoomRead, RoomUpdate, RoomDelete,
		BedCreate, BedRead, BedUpdate, BedDelete,
		InventoryCreate, InventoryRead, InventoryUpdate, InventoryDelete,
		RegistrationCreate, RegistrationRead, RegistrationUpdate, RegistrationDelete,
		CompanyRead, CompanyUpdate,
		PaymentCreate, PaymentRead,
		InvoiceCreate, InvoiceRead,
	),
	users.RoleUser: setOf(
		ApartmentRead, RoomRead, BedRead, RegistrationRead, InvoiceRead,
	),
}

func setOf(perms ...Permission) permissionSet {
	s := make(permissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// HasPermission looks the permission up in the static role table.
// Unknown roles and unknown permissions are always denied.
func HasPermission(role users.RoleType, perm Permission) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// PermissionsForRole returns a sorted copy of the role's permission set.
func PermissionsForRole(role users.RoleType) []Permission {
	set := rolePermissions[role]
	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// HasRole reports whether the user's role is one of allowed. A nil user has no role.
func HasRole(user *users.User, allowed ...users.RoleType) bool {
	if user == nil {
		return false
	}
	return slices.Contains(allowed, user.Role) && user.Role != users.RoleUnknown
}

// Known reports whether perm is part of the permission catalogue.
func Known(perm Permission) bool {
	return slices.Contains(All, perm)
}
