// Package authz decides, for every inbound request, whether the caller may
// reach the requested path, and where an authenticated caller's dashboard
// lives. The policy is a value: handlers and middleware evaluate it, they
// never mutate it.
package authz

import (
	"strings"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
)

// Principal is the authenticated caller. Role is re-read from storage on
// every request, not taken from a long-lived token claim.
type Principal struct {
	ID    uuid.UUID
	Email string
	Role  string
}

// Rule maps a path prefix to the roles allowed through it
type Rule struct {
	Prefix       string
	AllowedRoles []string
}

// Policy holds the public allow-list and the ordered role rules. Evaluation
// is first-match on the rules; paths matching no rule still require an
// authenticated principal. Unknown paths fail closed.
type Policy struct {
	publicPrefixes []string
	rules          []Rule
}

// Dashboard roots per role
const (
	UserDashboardPath     = "/usersdashboard"
	BusinessDashboardPath = "/business/dashboard"
	AdminConsolePath      = "/botswanaservices"
)

// Default returns the canonical policy. The historical variants disagreed on
// their allow-lists; this merges them conservatively, keeping the most
// restrictive rule wherever they conflicted.
func Default() *Policy {
	return &Policy{
		publicPrefixes: []string{
			"/health",
			"/login",
			"/signup",
			"/businesses",
			"/categories",
			"/static",
			"/api/auth",
		},
		rules: []Rule{
			{Prefix: AdminConsolePath, AllowedRoles: []string{models.RoleAdmin}},
			{Prefix: UserDashboardPath, AllowedRoles: []string{models.RoleUser, models.RoleAdmin}},
			{Prefix: "/business", AllowedRoles: []string{models.RoleBusiness, models.RoleAdmin}},
		},
	}
}

// IsPublic reports whether path is on the public allow-list. The site root is
// public; everything not matched here is protected by default.
func (p *Policy) IsPublic(path string) bool {
	if path == "/" || path == "" {
		return true
	}
	for _, prefix := range p.publicPrefixes {
		if matchPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Authorize decides whether the principal may reach path. A nil principal is
// anonymous and only passes public paths. The first matching rule wins;
// protected paths with no matching rule admit any authenticated role.
func (p *Policy) Authorize(path string, principal *Principal) bool {
	if p.IsPublic(path) {
		return true
	}

	if principal == nil {
		return false
	}

	for _, rule := range p.rules {
		if !matchPrefix(path, rule.Prefix) {
			continue
		}
		for _, role := range rule.AllowedRoles {
			if principal.Role == role {
				return true
			}
		}
		return false
	}

	// Unmapped protected prefix: authenticated principal required, any role.
	return true
}

// DashboardFor returns the canonical landing page for a role. Anything
// unrecognized lands on the site root.
func (p *Policy) DashboardFor(role string) string {
	switch role {
	case models.RoleUser:
		return UserDashboardPath
	case models.RoleBusiness:
		return BusinessDashboardPath
	case models.RoleAdmin:
		return AdminConsolePath
	default:
		return "/"
	}
}

// IsAuthGate reports whether path is a login or signup page, which
// authenticated principals are redirected away from.
func (p *Policy) IsAuthGate(path string) bool {
	return matchPrefix(path, "/login") || matchPrefix(path, "/signup")
}

// RedirectForAuthedGate computes where an already-authenticated principal
// should land when requesting the login or signup page: the callbackUrl query
// parameter when present, otherwise the role's dashboard.
func (p *Policy) RedirectForAuthedGate(role, callbackURL string) string {
	if callbackURL != "" {
		return callbackURL
	}
	return p.DashboardFor(role)
}

// matchPrefix matches whole path segments: "/business" matches "/business"
// and "/business/profile" but not "/businesses".
func matchPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == '/'
}
