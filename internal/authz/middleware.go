package authz

import (
	"errors"
	"net/http"

	"callcenter-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

const ginAuthorityKey = "authority"

// ResolveAuthority resolves the caller's authority for the org named by the
// given route param (falling back to the org_id query param) and stores it on
// the gin context for downstream handlers and Require* middleware.
//
// An absent org id is not an error; authority is then platform-level only.
func ResolveAuthority(r *Resolver, orgParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID, err := auth.CallerID(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
			return
		}

		orgID := ""
		if orgParam != "" {
			orgID = c.Param(orgParam)
		}
		if orgID == "" {
			orgID = c.Query("org_id")
		}

		authority, err := r.Resolve(c.Request.Context(), callerID, orgID)
		if err != nil {
			abortResolveError(c, err)
			return
		}

		c.Set(ginAuthorityKey, authority)
		c.Next()
	}
}

// FromGin returns the authority resolved by ResolveAuthority.
func FromGin(c *gin.Context) (Authority, bool) {
	v, ok := c.Get(ginAuthorityKey)
	if !ok {
		return Authority{}, false
	}
	a, ok := v.(Authority)
	return a, ok
}

// RequirePlatformAdmin allows only platform admins through.
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := FromGin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authority not resolved"})
			return
		}
		if a.PlatformRole != PlatformRoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireOrgAdmin allows org owners/admins and platform admins through.
func RequireOrgAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := FromGin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authority not resolved"})
			return
		}
		if !a.IsOrgAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireOrgAccess allows any org member or any platform role through.
func RequireOrgAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := FromGin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authority not resolved"})
			return
		}
		if a.OrgRole == OrgRoleNone && a.PlatformRole == PlatformRoleNone {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func abortResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidCaller):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid caller"})
	case errors.Is(err, ErrUnavailable):
		// Retryable: the caller's true authority could not be established,
		// which must not be reported as "no access".
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authority unavailable"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authority resolution failed"})
	}
}
