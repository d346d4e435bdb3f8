package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/botswanaservices/directory-backend/internal/authz"
	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// PrincipalContextKey is the key used to store the principal in Gin context
const PrincipalContextKey = "principal"

// Authenticate resolves the caller's principal from the Authorization header.
// It never rejects: anonymous requests pass through with no principal so the
// policy gate can decide. The role is re-read from storage on every request;
// a role change server-side takes effect on the caller's next request, not
// when their token expires.
func Authenticate(jwtService *jwt.Service, users *database.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			log.Printf("AUTH: invalid token - Path: %s, IP: %s, Error: %v", c.Request.URL.Path, c.ClientIP(), err)
			c.Next()
			return
		}

		role, err := users.GetRole(claims.UserID)
		if err != nil {
			log.Printf("AUTH: failed to refresh role for user %s: %v", claims.UserID, err)
			c.Next()
			return
		}
		if role == "" {
			// Token for a deleted account; treat as anonymous.
			c.Next()
			return
		}

		c.Set(PrincipalContextKey, &authz.Principal{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  role,
		})

		c.Next()
	}
}

// PolicyGate enforces the authorization policy for the request path before
// any handler logic runs. Anonymous callers on protected paths get 401,
// authenticated callers missing the required role get 403, and authenticated
// callers hitting the login or signup page are redirected to their dashboard
// (or the callbackUrl query parameter). The check is synchronous and
// idempotent; a denial never produces a partial response.
func PolicyGate(policy *authz.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		principal, _ := GetPrincipal(c)

		if principal != nil && policy.IsAuthGate(path) {
			target := policy.RedirectForAuthedGate(principal.Role, c.Query("callbackUrl"))
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}

		if policy.Authorize(path, principal) {
			c.Next()
			return
		}

		if principal == nil {
			log.Printf("AUTH DENIED: anonymous - Path: %s, IP: %s", path, c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			c.Abort()
			return
		}

		log.Printf("AUTH DENIED: role %s - Path: %s, User: %s", principal.Role, path, principal.ID)
		c.JSON(http.StatusForbidden, gin.H{
			"error": "you don't have permission to access this resource",
		})
		c.Abort()
	}
}

// GetPrincipal retrieves the principal from Gin context. The second return is
// false for anonymous requests.
func GetPrincipal(c *gin.Context) (*authz.Principal, bool) {
	value, exists := c.Get(PrincipalContextKey)
	if !exists {
		return nil, false
	}

	principal, ok := value.(*authz.Principal)
	if !ok || principal == nil {
		return nil, false
	}

	return principal, true
}

// MustGetPrincipal retrieves the principal or panics (use only behind PolicyGate)
func MustGetPrincipal(c *gin.Context) *authz.Principal {
	principal, exists := GetPrincipal(c)
	if !exists {
		panic("principal not found - ensure Authenticate and PolicyGate are applied")
	}
	return principal
}
