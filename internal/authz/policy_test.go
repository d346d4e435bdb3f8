package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/botswanaservices/directory-backend/internal/models"
)

func principal(role string) *Principal {
	return &Principal{
		ID:    uuid.New(),
		Email: "someone@example.com",
		Role:  role,
	}
}

func TestIsPublic(t *testing.T) {
	policy := Default()

	tests := []struct {
		name   string
		path   string
		public bool
	}{
		{"site root", "/", true},
		{"empty path", "", true},
		{"health check", "/health", true},
		{"login page", "/login", true},
		{"signup page", "/signup", true},
		{"directory list", "/businesses", true},
		{"directory detail", "/businesses/kalahari-cafe-a1b2", true},
		{"categories", "/categories", true},
		{"static assets", "/static/logo.png", true},
		{"auth api", "/api/auth/login", true},
		{"user dashboard", "/usersdashboard", false},
		{"business dashboard", "/business/profile", false},
		{"admin console", "/botswanaservices", false},
		{"unknown path", "/internal-tools", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.public, policy.IsPublic(tt.path))
		})
	}
}

func TestAuthorize_AnonymousFailsClosed(t *testing.T) {
	policy := Default()

	// Anonymous callers only pass public paths; everything else is denied,
	// including paths no rule mentions.
	assert.True(t, policy.Authorize("/businesses", nil))
	assert.False(t, policy.Authorize("/usersdashboard", nil))
	assert.False(t, policy.Authorize("/business/profile", nil))
	assert.False(t, policy.Authorize("/botswanaservices/stats", nil))
	assert.False(t, policy.Authorize("/some/new/feature", nil))
}

func TestAuthorize_RoleRules(t *testing.T) {
	policy := Default()

	tests := []struct {
		name    string
		path    string
		role    string
		allowed bool
	}{
		{"user on user dashboard", "/usersdashboard/profile", models.RoleUser, true},
		{"business on user dashboard", "/usersdashboard/profile", models.RoleBusiness, false},
		{"admin on user dashboard", "/usersdashboard/profile", models.RoleAdmin, true},
		{"business on business dashboard", "/business/profile", models.RoleBusiness, true},
		{"user on business dashboard", "/business/profile", models.RoleUser, false},
		{"admin on business dashboard", "/business/profile", models.RoleAdmin, true},
		{"admin on admin console", "/botswanaservices/businesses", models.RoleAdmin, true},
		{"user on admin console", "/botswanaservices/businesses", models.RoleUser, false},
		{"business on admin console", "/botswanaservices/businesses", models.RoleBusiness, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, policy.Authorize(tt.path, principal(tt.role)))
		})
	}
}

func TestAuthorize_UnmappedProtectedPathAnyRole(t *testing.T) {
	policy := Default()

	// Paths no rule covers still require authentication but accept any role.
	for _, role := range []string{models.RoleUser, models.RoleBusiness, models.RoleAdmin} {
		assert.True(t, policy.Authorize("/user/favorites", principal(role)), "role %s", role)
	}
	assert.False(t, policy.Authorize("/user/favorites", nil))
}

func TestAuthorize_PrefixMatchesWholeSegments(t *testing.T) {
	policy := Default()

	// "/businesses" is public and must not be swallowed by the protected
	// "/business" rule.
	assert.True(t, policy.Authorize("/businesses", nil))
	assert.True(t, policy.Authorize("/businesses/some-slug", nil))
	assert.False(t, policy.Authorize("/business", nil))
	assert.False(t, policy.Authorize("/businessx", nil))
}

func TestDashboardFor(t *testing.T) {
	policy := Default()

	assert.Equal(t, UserDashboardPath, policy.DashboardFor(models.RoleUser))
	assert.Equal(t, BusinessDashboardPath, policy.DashboardFor(models.RoleBusiness))
	assert.Equal(t, AdminConsolePath, policy.DashboardFor(models.RoleAdmin))
	assert.Equal(t, "/", policy.DashboardFor("unknown"))
	assert.Equal(t, "/", policy.DashboardFor(""))
}

func TestIsAuthGate(t *testing.T) {
	policy := Default()

	assert.True(t, policy.IsAuthGate("/login"))
	assert.True(t, policy.IsAuthGate("/signup"))
	assert.False(t, policy.IsAuthGate("/businesses"))
	assert.False(t, policy.IsAuthGate("/loginx"))
}

func TestRedirectForAuthedGate(t *testing.T) {
	policy := Default()

	// The callbackUrl parameter wins when present.
	assert.Equal(t, "/businesses/kalahari-cafe", policy.RedirectForAuthedGate(models.RoleUser, "/businesses/kalahari-cafe"))

	// Otherwise the role's dashboard.
	assert.Equal(t, UserDashboardPath, policy.RedirectForAuthedGate(models.RoleUser, ""))
	assert.Equal(t, BusinessDashboardPath, policy.RedirectForAuthedGate(models.RoleBusiness, ""))
	assert.Equal(t, AdminConsolePath, policy.RedirectForAuthedGate(models.RoleAdmin, ""))
}

func TestMatchPrefix(t *testing.T) {
	assert.True(t, matchPrefix("/business", "/business"))
	assert.True(t, matchPrefix("/business/profile", "/business"))
	assert.False(t, matchPrefix("/businesses", "/business"))
	assert.False(t, matchPrefix("/busi", "/business"))
}
