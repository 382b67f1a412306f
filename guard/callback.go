package guard

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-dashboard-gateway/routes"
)

// SafeCallback returns raw when it is a local path, otherwise the landing page.
// Anything that could leave the origin is rejected.
func SafeCallback(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n\t") {
		return routes.LandingPath
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return routes.LandingPath
	}
	if strings.HasPrefix(u.Path, routes.LoginPath) {
		return routes.LandingPath
	}
	return u.RequestURI()
}
