package server

import "github.com/jrsteele09/go-dashboard-gateway/routes"

// Route path constants
// All gateway routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/{$}"

	// Auth Routes - Login & Logout
	RouteLogin          = routes.LoginPath
	RouteLogout         = "/auth/logout"
	RouteRegister       = "/auth/register"
	RouteForgotPassword = "/auth/forgot-password"

	// Dashboard Routes
	RouteDashboard        = routes.LandingPath
	RouteDashboardSection = routes.LandingPath + "/{section...}"

	// API Routes
	RouteAPIRefresh    = "/api/auth/refresh"
	RouteAPISession    = "/api/auth/session"
	RouteAPIPermission = "/api/auth/permissions/{permission}"
	RouteAPIValidate   = "/api/auth/validate"
	RouteHealth        = "/healthz"
	RouteMetrics       = "/metrics"

	// Static Asset Routes (patterns)
	RouteStatic = routes.StaticPrefix + "{file...}"
)
