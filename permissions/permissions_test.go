package permissions_test

import (
	"testing"

	"github.com/jrsteele09/go-dashboard-gateway/permissions"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/stretchr/testify/require"
)

func TestHasPermission_AdminsHoldEverything(t *testing.T) {
	for _, role := range []users.RoleType{users.RoleSuperAdmin, users.RoleAdmin} {
		for _, p := range permissions.All {
			require.True(t, permissions.HasPermission(role, p), "%s %s", role, p)
		}
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name string
		role users.RoleType
		perm permissions.Permission
		want bool
	}{
		{"manager creates rooms", users.RoleManager, permissions.RoomCreate, true},
		{"manager reads companies", users.RoleManager, permissions.CompanyRead, true},
		{"manager cannot delete companies", users.RoleManager, permissions.CompanyDelete, false},
		{"manager cannot touch settings", users.RoleManager, permissions.SettingsRead, false},
		{"user reads rooms", users.RoleUser, permissions.RoomRead, true},
		{"user cannot update rooms", users.RoleUser, permissions.RoomUpdate, false},
		{"unknown role", users.RoleType("owner"), permissions.RoomRead, false},
		{"empty role", users.RoleUnknown, permissions.RoomRead, false},
		{"unknown permission", users.RoleAdmin, permissions.Permission("rocket:launch"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Called twice: the lookup must be pure.
			require.Equal(t, tt.want, permissions.HasPermission(tt.role, tt.perm))
			require.Equal(t, tt.want, permissions.HasPermission(tt.role, tt.perm))
		})
	}
}

func TestHasRole(t *testing.T) {
	manager := &users.User{ID: "m1", Role: users.RoleManager}

	require.True(t, permissions.HasRole(manager, users.RoleAdmin, users.RoleManager))
	require.False(t, permissions.HasRole(manager, users.RoleAdmin, users.RoleSuperAdmin))
	require.False(t, permissions.HasRole(nil, users.RoleAdmin))
	require.False(t, permissions.HasRole(manager))
	require.False(t, permissions.HasRole(&users.User{ID: "x"}, users.RoleUnknown))
}

func TestPermissionsForRole_ReturnsCopy(t *testing.T) {
	perms := permissions.PermissionsForRole(users.RoleUser)
	require.Len(t, perms, 5)
	perms[0] = "tampered:yes"
	require.NotContains(t, permissions.PermissionsForRole(users.RoleUser), permissions.Permission("tampered:yes"))
	require.Empty(t, permissions.PermissionsForRole("ghost"))
}

func TestResolver(t *testing.T) {
	var anonymous permissions.Resolver
	require.False(t, anonymous.Can(permissions.RoomRead))
	require.False(t, anonymous.Is(users.RoleUser))
	require.Empty(t, anonymous.Permissions())
	require.Equal(t, users.RoleUnknown, anonymous.Role())

	r := permissions.NewResolver(&users.User{ID: "u1", Role: users.RoleManager})
	require.True(t, r.Can(permissions.BedDelete))
	require.False(t, r.Can(permissions.UserRead))
	require.True(t, r.CanAny(permissions.UserRead, permissions.BedRead))
	require.True(t, r.Is(users.RoleManager))
	require.True(t, permissions.Known(permissions.BedDelete))
	require.False(t, permissions.Known("bed:fly"))
}
