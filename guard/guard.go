// Package guard decides, for every page navigation, whether the page may render
// or where the browser must be sent instead. Decisions are plain values; the
// HTTP layer performs the redirect.
package guard

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-dashboard-gateway/routes"
	"github.com/jrsteele09/go-dashboard-gateway/users"
)

type State string

const (
	Checking    State = "checking"
	Redirecting State = "redirecting"
	Rendering   State = "rendering"
)

type Reason string

const (
	ReasonPublicAuthenticated Reason = "public-authenticated"
	ReasonUnauthenticated     Reason = "unauthenticated"
	ReasonPermissionDenied    Reason = "permission-denied"
	ReasonAllowed             Reason = "allowed"
	ReasonSuperseded          Reason = "superseded"
)

// Decision is the terminal state of one navigation. Target is set when redirecting.
type Decision struct {
	State  State
	Target string
	Reason Reason
	Rule   routes.Rule
}

// Final reports whether the caller may act on the decision.
func (d Decision) Final() bool {
	return d.State == Redirecting || d.State == Rendering
}

// Authenticator is the view of the credential store the guard needs.
type Authenticator interface {
	IsAuthenticated() bool
	CheckAuth(ctx context.Context) bool
	User() *users.User
}

type Guard struct {
	matcher *routes.Matcher
}

func New(matcher *routes.Matcher) *Guard {
	if matcher == nil {
		matcher = routes.Default()
	}
	return &Guard{matcher: matcher}
}

// Matcher returns the route table the guard evaluates against.
func (g *Guard) Matcher() *routes.Matcher {
	return g.matcher
}

// Evaluate runs the transition rules for requestURI (path plus optional query)
// in order. Protected paths always go through CheckAuth so an expired token is
// caught before anything renders; with a valid stored token that check is local.
func (g *Guard) Evaluate(ctx context.Context, requestURI string, auth Authenticator) Decision {
	rule := g.matcher.Classify(requestURI)

	if rule.Class == routes.Public {
		// A stored session is confirmed first so an expired one does not
		// bounce the browser between login and landing.
		if auth.IsAuthenticated() && auth.CheckAuth(ctx) {
			return redirect(rule, routes.LandingPath, ReasonPublicAuthenticated)
		}
		if ctx.Err() != nil {
			return Decision{State: Checking, Reason: ReasonSuperseded, Rule: rule}
		}
		return Decision{State: Rendering, Reason: ReasonAllowed, Rule: rule}
	}

	authenticated := auth.CheckAuth(ctx)
	if ctx.Err() != nil {
		return Decision{State: Checking, Reason: ReasonSuperseded, Rule: rule}
	}
	if !authenticated {
		return redirect(rule, LoginTarget(requestURI), ReasonUnauthenticated)
	}

	if rule.RoleRestricted() {
		role := users.RoleUnknown
		if u := auth.User(); u != nil {
			role = u.Role
		}
		if !rule.Allows(role) {
			return redirect(rule, routes.LandingPath, ReasonPermissionDenied)
		}
	}
	return Decision{State: Rendering, Reason: ReasonAllowed, Rule: rule}
}

// LoginTarget is the login page carrying requestURI as the post-login callback.
func LoginTarget(requestURI string) string {
	if requestURI == "" {
		return routes.LoginPath
	}
	return routes.LoginPath + "?" + routes.CallbackParam + "=" + url.QueryEscape(requestURI)
}

func redirect(rule routes.Rule, target string, reason Reason) Decision {
	return Decision{State: Redirecting, Target: target, Reason: reason, Rule: rule}
}
