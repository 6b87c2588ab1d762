package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/authz"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/mightycall"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authManager *auth.Manager,
	resolver *authz.Resolver, allowHeaderIdentity bool, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		// Provider reachability is informational: the API serves reads
		// without it, so it never fails the health check.
		provider := "ok"
		if h.Provider == nil {
			provider = "unconfigured"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			switch err := h.Provider.HealthCheck(ctx); {
			case errors.Is(err, mightycall.ErrNotConfigured):
				provider = "unconfigured"
			case err != nil:
				provider = "unreachable"
			}
		}
		c.JSON(200, gin.H{"status": "ok", "provider": provider})
	})

	v1 := r.Group("/v1")

	// Token issuance is the only unauthenticated v1 route.
	v1.POST("/auth/token", h.IssueToken)

	protected := v1.Group("")
	protected.Use(auth.RequireCaller(authManager, allowHeaderIdentity))
	{
		// Authority and metrics accept an optional org_id query param;
		// the handlers enforce org-vs-platform access themselves.
		protected.GET("/authority", authz.ResolveAuthority(resolver, ""), h.GetAuthority)
		protected.GET("/metrics", authz.ResolveAuthority(resolver, ""), h.GetMetrics)

		// Platform-level administration.
		admin := protected.Group("/admin", authz.ResolveAuthority(resolver, ""), authz.RequirePlatformAdmin())
		{
			admin.GET("/orgs", h.ListOrgs)
			admin.POST("/orgs", h.CreateOrg)
			admin.POST("/metrics/sync", h.TriggerSync)
			admin.GET("/phone-numbers", h.ListProviderNumbers)
			admin.GET("/sms", h.ListProviderSMS)
		}

		// Org-scoped administration: org owners/admins, or platform admins.
		org := protected.Group("/orgs/:org_id", authz.ResolveAuthority(resolver, "org_id"), authz.RequireOrgAdmin())
		{
			org.PUT("/members/:user_id", h.UpsertMember)
			org.DELETE("/members/:user_id", h.RemoveMember)
			org.PUT("/members/:user_id/permissions", h.SetManagerPermissions)
		}
	}
}
