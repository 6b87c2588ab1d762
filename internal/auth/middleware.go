package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "

	// headerUserID is accepted only when explicitly enabled in config.
	// It mirrors gateway deployments where an upstream proxy has already
	// authenticated the caller; tokens are the default path.
	headerUserID = "x-user-id"
)

// RequireCaller verifies caller identity and injects it into request context.
// It performs no authorization; roles are resolved per request by internal/authz.
func RequireCaller(m *Manager, allowHeaderIdentity bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" && allowHeaderIdentity {
			uid := strings.TrimSpace(c.GetHeader(headerUserID))
			if uid == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
				return
			}
			attachCaller(c, uid)
			c.Next()
			return
		}

		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		attachCaller(c, claims.UserID)
		c.Next()
	}
}

func attachCaller(c *gin.Context, userID string) {
	ctx := WithCaller(c.Request.Context(), userID)
	c.Request = c.Request.WithContext(ctx)

	// Also store on gin context for handler convenience.
	c.Set("user_id", userID)
}
