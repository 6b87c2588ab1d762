package orgs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/authz"

	"github.com/google/uuid"
)

// Repository is the persistence contract for organizations and their
// memberships.
//
// Tenancy invariant: every membership and overlay row carries org_id.

type Repository interface {
	// CreateOrg persists the org, its default settings and the creator's
	// admin membership atomically.
	CreateOrg(ctx context.Context, org Organization, settings Settings) error
	ListOrgs(ctx context.Context) ([]Organization, error)

	UpsertMember(ctx context.Context, orgID, userID string, role authz.OrgRole, extension string) error
	RemoveMember(ctx context.Context, orgID, userID string) error

	SetManagerPermissions(ctx context.Context, orgID, userID string, p authz.Permissions) error
}

var (
	ErrInvalidArgument = errors.New("orgs: invalid argument")
	ErrNotFound        = errors.New("orgs: not found")
)

// Service provides org administration operations.
//
// Authorization is NOT enforced here; the HTTP layer resolves the caller's
// authority before these methods run. Audit logging is best-effort.
type Service struct {
	repo  Repository
	audit *audit.Service
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, auditSvc *audit.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, audit: auditSvc, log: log, clock: time.Now}
}

type CreateOrgRequest struct {
	Name            string `json:"name"`
	BusinessHours   string `json:"business_hours,omitempty"`
	EscalationEmail string `json:"escalation_email,omitempty"`
}

// CreateOrg provisions a new tenant. The creating user becomes an org_admin
// so the org is never left without an administrator.
func (s *Service) CreateOrg(ctx context.Context, creatorUserID string, req CreateOrgRequest) (Organization, error) {
	if creatorUserID == "" || req.Name == "" {
		return Organization{}, ErrInvalidArgument
	}

	org := Organization{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedBy: creatorUserID,
		CreatedAt: s.clock().UTC(),
	}
	settings := defaultSettings(org.ID)
	settings.BusinessHours = req.BusinessHours
	settings.EscalationEmail = req.EscalationEmail

	if err := s.repo.CreateOrg(ctx, org, settings); err != nil {
		return Organization{}, fmt.Errorf("create org: %w", err)
	}

	s.logAudit(ctx, audit.Event{
		OrgID:       org.ID,
		Type:        audit.EventTypeOrgCreated,
		ActorUserID: creatorUserID,
		Message:     "organization created: " + org.Name,
	})
	return org, nil
}

func (s *Service) ListOrgs(ctx context.Context) ([]Organization, error) {
	return s.repo.ListOrgs(ctx)
}

// UpsertMember adds a user to the org or changes their role. The optional
// extension is the user's MightyCall dial extension within the org.
func (s *Service) UpsertMember(ctx context.Context, actorUserID, orgID, userID string, role authz.OrgRole, extension string) error {
	if orgID == "" || userID == "" {
		return ErrInvalidArgument
	}
	if !authz.ValidOrgRole(role) {
		return ErrInvalidArgument
	}
	if err := s.repo.UpsertMember(ctx, orgID, userID, role, extension); err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	s.logAudit(ctx, audit.Event{
		OrgID:        orgID,
		Type:         audit.EventTypeRoleChange,
		ActorUserID:  actorUserID,
		TargetUserID: userID,
		Message:      "role set to " + string(role),
	})
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, actorUserID, orgID, userID string) error {
	if orgID == "" || userID == "" {
		return ErrInvalidArgument
	}
	if err := s.repo.RemoveMember(ctx, orgID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.logAudit(ctx, audit.Event{
		OrgID:        orgID,
		Type:         audit.EventTypeRoleChange,
		ActorUserID:  actorUserID,
		TargetUserID: userID,
		Message:      "membership removed",
	})
	return nil
}

// SetManagerPermissions replaces the permission overlay for an org_manager.
// The overlay only takes effect for users whose membership role is
// org_manager; storing it for other users is harmless but inert.
func (s *Service) SetManagerPermissions(ctx context.Context, actorUserID, orgID, userID string, p authz.Permissions) error {
	if orgID == "" || userID == "" {
		return ErrInvalidArgument
	}
	if err := s.repo.SetManagerPermissions(ctx, orgID, userID, p); err != nil {
		return fmt.Errorf("set manager permissions: %w", err)
	}
	s.logAudit(ctx, audit.Event{
		OrgID:        orgID,
		Type:         audit.EventTypePermissionChange,
		ActorUserID:  actorUserID,
		TargetUserID: userID,
		Metadata: fmt.Sprintf(`{"manage_agents":%t,"manage_phone_numbers":%t,"edit_service_targets":%t,"view_billing":%t}`,
			p.CanManageAgents, p.CanManagePhoneNumbers, p.CanEditServiceTargets, p.CanViewBilling),
	})
	return nil
}

func (s *Service) logAudit(ctx context.Context, e audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, e); err != nil {
		s.log.Warn("audit append failed", slog.String("org_id", e.OrgID), slog.String("error", err.Error()))
	}
}
