package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresOrgAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeRoleChange}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{OrgID: "org-1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogRoleChange(context.Background(), "org-1", "admin-1", "org_admin", "agent-9", "promoted to org_manager"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].Type != EventTypeRoleChange {
		t.Fatalf("expected role_change, got %s", evs[0].Type)
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be filled")
	}
	if evs[0].TargetUserID != "agent-9" {
		t.Fatalf("expected target captured")
	}
}
