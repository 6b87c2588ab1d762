package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided on purpose.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.OrgID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogRoleChange records a membership role change made by an admin.
func (s *Service) LogRoleChange(ctx context.Context, orgID, actorUserID, actorRole, targetUserID, message string) error {
	return s.Append(ctx, Event{
		OrgID:        orgID,
		Type:         EventTypeRoleChange,
		ActorUserID:  actorUserID,
		ActorRole:    actorRole,
		TargetUserID: targetUserID,
		Message:      message,
	})
}

// LogPermissionChange records an update to a manager's permission overlay.
func (s *Service) LogPermissionChange(ctx context.Context, orgID, actorUserID, actorRole, targetUserID, metadata string) error {
	return s.Append(ctx, Event{
		OrgID:        orgID,
		Type:         EventTypePermissionChange,
		ActorUserID:  actorUserID,
		ActorRole:    actorRole,
		TargetUserID: targetUserID,
		Metadata:     metadata,
	})
}

// LogSyncRun records one provider report sync pass for an org.
func (s *Service) LogSyncRun(ctx context.Context, orgID, actorUserID, message string) error {
	return s.Append(ctx, Event{
		OrgID:       orgID,
		Type:        EventTypeSyncRun,
		ActorUserID: actorUserID,
		Message:     message,
	})
}
