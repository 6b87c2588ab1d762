package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/authz"
	"callcenter-platform/internal/metrics"
	"callcenter-platform/internal/mightycall"
	"callcenter-platform/internal/orgs"
	"callcenter-platform/internal/reportsync"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth     *auth.Manager
	Metrics  *metrics.Service
	Orgs     *orgs.Service
	Sync     *reportsync.Service
	Provider mightycall.Provider
}

// --- Auth ---

type tokenRequest struct {
	UserID string `json:"user_id"`
}

// IssueToken issues a JWT token pair for a user id.
//
// Tokens carry identity only. Roles are resolved from the database on every
// request, so a role change takes effect without re-issuing tokens.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Authority ---

// GetAuthority returns the caller's resolved authority for the org named by
// the org_id query param (or platform-level authority when absent).
func (h Handlers) GetAuthority(c *gin.Context) {
	a, ok := authz.FromGin(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authority not resolved"})
		return
	}
	c.JSON(http.StatusOK, a)
}

// --- Metrics ---

// GetMetrics serves today's call metrics.
//
// With ?org_id= it returns that org's snapshot and requires org access.
// Without it, it returns the cross-org summary and requires a platform role.
func (h Handlers) GetMetrics(c *gin.Context) {
	if h.Metrics == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "metrics not configured"})
		return
	}
	a, ok := authz.FromGin(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authority not resolved"})
		return
	}

	orgID := c.Query("org_id")
	if orgID == "" {
		if a.PlatformRole == authz.PlatformRoleNone {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		out, err := h.Metrics.GlobalSummary(c.Request.Context())
		if err != nil {
			abortMetricsError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
		return
	}

	if a.OrgRole == authz.OrgRoleNone && a.PlatformRole == authz.PlatformRoleNone {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	snap, err := h.Metrics.OrgSnapshot(c.Request.Context(), orgID)
	if err != nil {
		abortMetricsError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func abortMetricsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, metrics.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, metrics.ErrFetchFailed):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "metrics unavailable"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "metrics lookup failed"})
	}
}

// --- Org administration ---

// CreateOrg provisions a new tenant. Platform admin only.
func (h Handlers) CreateOrg(c *gin.Context) {
	if h.Orgs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orgs not configured"})
		return
	}
	callerID, err := auth.CallerID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}
	var req orgs.CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	org, err := h.Orgs.CreateOrg(c.Request.Context(), callerID, req)
	if err != nil {
		abortOrgsError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (h Handlers) ListOrgs(c *gin.Context) {
	if h.Orgs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orgs not configured"})
		return
	}
	out, err := h.Orgs.ListOrgs(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "org listing failed"})
		return
	}
	if out == nil {
		out = []orgs.Organization{}
	}
	c.JSON(http.StatusOK, out)
}

type upsertMemberRequest struct {
	Role string `json:"role"`
	// Extension is the member's MightyCall dial extension (optional).
	Extension string `json:"mightycall_extension,omitempty"`
}

// UpsertMember adds a user to the org or changes their role. Org admin only.
func (h Handlers) UpsertMember(c *gin.Context) {
	if h.Orgs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orgs not configured"})
		return
	}
	callerID, err := auth.CallerID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}
	var req upsertMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	orgID := c.Param("org_id")
	userID := c.Param("user_id")
	if err := h.Orgs.UpsertMember(c.Request.Context(), callerID, orgID, userID, authz.OrgRole(req.Role), req.Extension); err != nil {
		abortOrgsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"org_id": orgID, "user_id": userID, "role": req.Role})
}

func (h Handlers) RemoveMember(c *gin.Context) {
	if h.Orgs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orgs not configured"})
		return
	}
	callerID, err := auth.CallerID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}
	orgID := c.Param("org_id")
	userID := c.Param("user_id")
	if err := h.Orgs.RemoveMember(c.Request.Context(), callerID, orgID, userID); err != nil {
		abortOrgsError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetManagerPermissions replaces an org_manager's permission overlay.
// Org admin only.
func (h Handlers) SetManagerPermissions(c *gin.Context) {
	if h.Orgs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orgs not configured"})
		return
	}
	callerID, err := auth.CallerID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}
	var req authz.Permissions
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	orgID := c.Param("org_id")
	userID := c.Param("user_id")
	if err := h.Orgs.SetManagerPermissions(c.Request.Context(), callerID, orgID, userID, req); err != nil {
		abortOrgsError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func abortOrgsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orgs.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid argument"})
	case errors.Is(err, orgs.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "org operation failed"})
	}
}

// --- Metrics sync ---

type syncRequest struct {
	OrgID string `json:"org_id,omitempty"`
}

// TriggerSync runs a provider report sync, for one org or for all.
// Platform admin only.
func (h Handlers) TriggerSync(c *gin.Context) {
	if h.Sync == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync not configured"})
		return
	}
	callerID, err := auth.CallerID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if req.OrgID != "" {
		res, err := h.Sync.SyncOrg(c.Request.Context(), callerID, req.OrgID)
		if err != nil {
			abortSyncError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": []reportsync.OrgResult{res}})
		return
	}

	results, err := h.Sync.SyncAll(c.Request.Context(), callerID)
	if err != nil && len(results) == 0 {
		abortSyncError(c, err)
		return
	}
	out := gin.H{"results": results}
	if err != nil {
		out["partial_failure"] = err.Error()
	}
	c.JSON(http.StatusOK, out)
}

func abortSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reportsync.ErrSyncInProgress):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "sync already running"})
	default:
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "sync failed"})
	}
}

// --- Provider reads ---

// ListProviderNumbers returns the phone numbers registered at the telephony
// provider. Platform admin only.
func (h Handlers) ListProviderNumbers(c *gin.Context) {
	if h.Provider == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "provider not configured"})
		return
	}
	nums, err := h.Provider.ListPhoneNumbers(c.Request.Context())
	if err != nil {
		abortProviderError(c, err)
		return
	}
	if nums == nil {
		nums = []mightycall.PhoneNumber{}
	}
	c.JSON(http.StatusOK, gin.H{"phone_numbers": nums})
}

// ListProviderSMS returns the provider's message journal for one UTC day
// (?date=YYYY-MM-DD, default today). Platform admin only.
func (h Handlers) ListProviderSMS(c *gin.Context) {
	if h.Provider == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "provider not configured"})
		return
	}
	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	msgs, err := h.Provider.ListSMS(c.Request.Context(), day)
	if err != nil {
		abortProviderError(c, err)
		return
	}
	if msgs == nil {
		msgs = []mightycall.SMSRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func abortProviderError(c *gin.Context, err error) {
	if errors.Is(err, mightycall.ErrNotConfigured) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "provider not configured"})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "provider request failed"})
}
