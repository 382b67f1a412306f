package fakebackend

import (
	"github.com/jrsteele09/go-dashboard-gateway/users"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "Password123"

// DemoUsers is one account per role, used when the gateway runs with MOCK_BACKEND.
var DemoUsers = []users.User{
	{ID: "demo-super-admin", Name: "Sam Super", Email: "superadmin@example.com", Role: users.RoleSuperAdmin},
	{ID: "demo-admin", Name: "Ada Admin", Email: "admin@example.com", Role: users.RoleAdmin, TenantID: "company-1"},
	{ID: "demo-manager", Name: "Max Manager", Email: "manager@example.com", Role: users.RoleManager, TenantID: "company-1"},
	{ID: "demo-user", Name: "Uma User", Email: "user@example.com", Role: users.RoleUser, TenantID: "company-1"},
}

// SeedDemoUsers stores DemoUsers with DemoPassword.
func (s *Server) SeedDemoUsers() error {
	for _, u := range DemoUsers {
		if err := s.AddUser(u, DemoPassword); err != nil {
			return err
		}
	}
	return nil
}
