package guard

import (
	"time"

	"github.com/jrsteele09/go-dashboard-gateway/routes"
	"github.com/jrsteele09/go-dashboard-gateway/token"
	"github.com/jrsteele09/go-dashboard-gateway/users"
)

// EdgeCheck applies the first three rules using only the decoded cookie claims.
// It never contacts the credential store, so it can run before any page work.
// claims is nil when the request carries no readable token.
func (g *Guard) EdgeCheck(requestURI string, claims *token.Claims, now time.Time) Decision {
	rule := g.matcher.Classify(requestURI)
	authenticated := claims != nil && !claims.Expired(now)

	if rule.Class == routes.Public {
		if authenticated {
			return redirect(rule, routes.LandingPath, ReasonPublicAuthenticated)
		}
		return Decision{State: Rendering, Reason: ReasonAllowed, Rule: rule}
	}

	if !authenticated {
		return redirect(rule, LoginTarget(requestURI), ReasonUnauthenticated)
	}
	if rule.RoleRestricted() && !rule.Allows(users.ParseRole(string(claims.Role))) {
		return redirect(rule, routes.LandingPath, ReasonPermissionDenied)
	}
	return Decision{State: Rendering, Reason: ReasonAllowed, Rule: rule}
}
