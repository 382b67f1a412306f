package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-dashboard-gateway/permissions"
	"github.com/jrsteele09/go-dashboard-gateway/routes"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/rs/zerolog/log"
)

// Headers the upstream front-end receives for the signed-in user. Incoming
// values are always stripped so a browser cannot forge them.
const (
	HeaderUserID   = "X-Dashboard-User-Id"
	HeaderUserRole = "X-Dashboard-User-Role"
	HeaderTenantID = "X-Dashboard-Tenant-Id"
)

// Section is one page of the dashboard. Resource is the permission prefix the
// page manages; the overview has none.
type Section struct {
	Slug     string
	Title    string
	Noun     string
	Resource string
}

func (s Section) Path() string {
	if s.Slug == "" {
		return routes.LandingPath
	}
	return routes.LandingPath + "/" + s.Slug
}

func (s Section) permission(action string) permissions.Permission {
	return permissions.Permission(s.Resource + ":" + action)
}

var dashboardSections = []Section{
	{Slug: "", Title: "Overview"},
	{Slug: "companies", Title: "Companies", Noun: "company", Resource: "company"},
	{Slug: "apartments", Title: "Apartments", Noun: "apartment", Resource: "apartment"},
	{Slug: "rooms", Title: "Rooms", Noun: "room", Resource: "room"},
	{Slug: "beds", Title: "Beds", Noun: "bed", Resource: "bed"},
	{Slug: "inventory", Title: "Inventory", Noun: "item", Resource: "inventory"},
	{Slug: "registrations", Title: "Registrations", Noun: "registration", Resource: "registration"},
	{Slug: "payments", Title: "Payments", Noun: "payment", Resource: "payment"},
	{Slug: "invoices", Title: "Invoices", Noun: "invoice", Resource: "invoice"},
	{Slug: "users", Title: "Users", Noun: "user", Resource: "user"},
	{Slug: "settings", Title: "Settings", Resource: "settings"},
}

type DashboardPageData struct {
	AppName   string
	User      *users.User
	Section   Section
	Sections  []Section // Sections the user may open
	CanCreate bool
	CanUpdate bool
	CanDelete bool
}

type ErrorPageData struct {
	AppName  string
	Title    string
	Message  string
	RetryURL string
}

// DashboardHandler serves guarded dashboard pages. With an upstream configured
// the request is proxied there; otherwise the page is rendered here.
func (s *Server) DashboardHandler() http.HandlerFunc {
	dashboardTmpl := mustParseTemplate("dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		store := s.storeFromContext(w, r)
		user := store.User()

		if s.upstream != nil {
			s.proxyUpstream(w, r, user)
			return
		}

		section, ok := findSection(strings.Trim(r.PathValue("section"), "/"))
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Page not found", "There is no dashboard page at this address.")
			return
		}

		resolver := permissions.NewResolver(user)
		if !s.sectionVisible(section, resolver) {
			s.renderError(w, r, http.StatusForbidden, "Access denied", "Your role does not allow you to view this page.")
			return
		}

		data := DashboardPageData{
			AppName:  s.config.GetAppName(),
			User:     user.Public(),
			Section:  section,
			Sections: s.visibleSections(resolver),
		}
		if section.Resource != "" {
			data.CanCreate = resolver.Can(section.permission("create"))
			data.CanUpdate = resolver.Can(section.permission("update"))
			data.CanDelete = resolver.Can(section.permission("delete"))
		}
		renderTemplate(w, dashboardTmpl, http.StatusOK, data)
	}
}

func findSection(slug string) (Section, bool) {
	for _, sec := range dashboardSections {
		if sec.Slug == slug {
			return sec, true
		}
	}
	return Section{}, false
}

// sectionVisible requires both the route table and the permission table to agree.
func (s *Server) sectionVisible(sec Section, resolver permissions.Resolver) bool {
	if rule := s.guard.Matcher().Classify(sec.Path()); rule.RoleRestricted() && !rule.Allows(resolver.Role()) {
		return false
	}
	if sec.Resource == "" {
		return resolver.Role() != users.RoleUnknown
	}
	return resolver.Can(sec.permission("read"))
}

func (s *Server) visibleSections(resolver permissions.Resolver) []Section {
	visible := make([]Section, 0, len(dashboardSections))
	for _, sec := range dashboardSections {
		if s.sectionVisible(sec, resolver) {
			visible = append(visible, sec)
		}
	}
	return visible
}

func (s *Server) proxyUpstream(w http.ResponseWriter, r *http.Request, user *users.User) {
	out := r.Clone(r.Context())
	out.Header.Del(HeaderUserID)
	out.Header.Del(HeaderUserRole)
	out.Header.Del(HeaderTenantID)
	if user != nil {
		out.Header.Set(HeaderUserID, user.ID)
		out.Header.Set(HeaderUserRole, user.Role.String())
		if user.TenantID != "" {
			out.Header.Set(HeaderTenantID, user.TenantID)
		}
	}
	s.upstream.ServeHTTP(w, out)
}

var errorTmpl = mustParseTemplate("error.html")

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	renderTemplate(w, errorTmpl, status, ErrorPageData{
		AppName:  s.config.GetAppName(),
		Title:    title,
		Message:  msg,
		RetryURL: routes.LandingPath,
	})
}

// renderUnavailable answers a navigation whose session could not be checked
// because the backend is down. The browser keeps its cookie and may retry.
func (s *Server) renderUnavailable(w http.ResponseWriter, r *http.Request) {
	log.Warn().Str("path", r.URL.Path).Msg("session check failed, backend unavailable")
	w.Header().Set("Retry-After", "5")
	w.Header().Set("Cache-Control", "no-store")
	renderTemplate(w, errorTmpl, http.StatusServiceUnavailable, ErrorPageData{
		AppName:  s.config.GetAppName(),
		Title:    "Service unavailable",
		Message:  "We could not confirm your session because the housing service is not responding. Please try again in a moment.",
		RetryURL: r.URL.RequestURI(),
	})
}
