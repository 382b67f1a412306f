// Package routes classifies dashboard paths as public or protected and names
// the roles a protected path is restricted to.
package routes

import (
	_ "embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/jrsteele09/go-dashboard-gateway/users"
	"gopkg.in/yaml.v3"
)

const (
	// LandingPath is where authenticated users are sent by default.
	LandingPath = "/dashboard"
	// LoginPath is the login page.
	LoginPath = "/auth/login"
	// CallbackParam carries the originally requested location through login.
	CallbackParam = "callbackUrl"
)

type Class string

const (
	Public    Class = "public"
	Protected Class = "protected"
)

// Rule classifies every path under Prefix. A non-empty Roles list makes the
// rule role restricted.
type Rule struct {
	Prefix string           `yaml:"prefix"`
	Class  Class            `yaml:"class"`
	Roles  []users.RoleType `yaml:"roles,omitempty"`
}

// RoleRestricted reports whether only some roles may enter.
func (r Rule) RoleRestricted() bool {
	return len(r.Roles) > 0
}

// Allows reports whether role may enter. Unknown roles never may.
func (r Rule) Allows(role users.RoleType) bool {
	if !role.Valid() {
		return false
	}
	if !r.RoleRestricted() {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

type file struct {
	Routes []Rule `yaml:"routes"`
}

//go:embed default_routes.yaml
var defaultRoutes []byte

// fallback applies to paths no rule matches.
var fallback = Rule{Prefix: "/", Class: Protected}

// Matcher resolves paths against an immutable rule table.
type Matcher struct {
	rules []Rule // longest prefix first
}

// NewMatcher validates rules and normalises their prefixes and roles.
func NewMatcher(rules []Rule) (*Matcher, error) {
	seen := map[string]struct{}{}
	normalised := make([]Rule, 0, len(rules))
	for _, r := range rules {
		prefix := cleanPath(r.Prefix)
		if !strings.HasPrefix(strings.TrimSpace(r.Prefix), "/") {
			return nil, fmt.Errorf("route %q: prefix must start with /", r.Prefix)
		}
		if _, dup := seen[prefix]; dup {
			return nil, fmt.Errorf("route %q: duplicate prefix", prefix)
		}
		seen[prefix] = struct{}{}

		if r.Class != Public && r.Class != Protected {
			return nil, fmt.Errorf("route %q: unknown class %q", prefix, r.Class)
		}
		if r.Class == Public && len(r.Roles) > 0 {
			return nil, fmt.Errorf("route %q: public routes cannot be role restricted", prefix)
		}

		roles := make([]users.RoleType, 0, len(r.Roles))
		for _, role := range r.Roles {
			parsed := users.ParseRole(string(role))
			if !parsed.Valid() {
				return nil, fmt.Errorf("route %q: unknown role %q", prefix, role)
			}
			roles = append(roles, parsed)
		}
		normalised = append(normalised, Rule{Prefix: prefix, Class: r.Class, Roles: roles})
	}

	sort.SliceStable(normalised, func(i, j int) bool {
		return len(normalised[i].Prefix) > len(normalised[j].Prefix)
	})
	return &Matcher{rules: normalised}, nil
}

// Parse reads a YAML route table.
func Parse(data []byte) (*Matcher, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	return NewMatcher(f.Routes)
}

// Default returns the built-in dashboard route table.
func Default() *Matcher {
	m, err := Parse(defaultRoutes)
	if err != nil {
		panic(fmt.Sprintf("embedded route table: %v", err))
	}
	return m
}

// Load reads the route table at filename, or returns Default when filename is empty.
func Load(filename string) (*Matcher, error) {
	if strings.TrimSpace(filename) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return Parse(data)
}

// Classify returns the rule with the longest prefix matching p. Paths no rule
// matches are protected.
func (m *Matcher) Classify(p string) Rule {
	p = cleanPath(p)
	for _, r := range m.rules {
		if matches(r.Prefix, p) {
			return r
		}
	}
	return fallback
}

// Rules returns a copy of the table, longest prefix first.
func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// IsPublic is shorthand for Classify(p).Class == Public.
func (m *Matcher) IsPublic(p string) bool {
	return m.Classify(p).Class == Public
}

func matches(prefix, p string) bool {
	if prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// cleanPath drops query and fragment and resolves dot segments.
func cleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
