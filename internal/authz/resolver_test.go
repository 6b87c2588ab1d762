package authz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestResolver(platform *MemoryPlatformRoles, overlays *MemoryOverlays, providers ...*MemoryMembershipProvider) *Resolver {
	chain := make([]MembershipProvider, 0, len(providers))
	for _, p := range providers {
		chain = append(chain, p)
	}
	return NewResolver(platform, chain, overlays, time.Second)
}

func TestResolve_RejectsEmptyCaller(t *testing.T) {
	r := newTestResolver(NewMemoryPlatformRoles(), NewMemoryOverlays(), NewMemoryMembershipProvider("org_members"))
	if _, err := r.Resolve(context.Background(), "  ", "org-1"); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("expected ErrInvalidCaller, got %v", err)
	}
}

func TestResolve_PlatformAdminSupersedesEverything(t *testing.T) {
	platform := NewMemoryPlatformRoles()
	platform.Roles["u1"] = PlatformRoleAdmin

	members := NewMemoryMembershipProvider("org_members")
	members.Add(Membership{OrgID: "org-1", UserID: "u1", Role: OrgRoleAgent})

	overlays := NewMemoryOverlays()
	// A contradictory overlay must be irrelevant at this tier.
	overlays.Set("u1", "org-1", Permissions{})

	r := newTestResolver(platform, overlays, members)
	a, err := r.Resolve(context.Background(), "u1", "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.PlatformRole != PlatformRoleAdmin || a.OrgRole != OrgRoleAgent {
		t.Fatalf("unexpected authority: %+v", a)
	}
	if !a.IsOrgAdmin {
		t.Fatalf("platform admin must count as org admin")
	}
	if a.Permissions != fullPermissions() {
		t.Fatalf("expected full permissions, got %+v", a.Permissions)
	}
}

func TestResolve_PlatformAdminWithoutOrg(t *testing.T) {
	platform := NewMemoryPlatformRoles()
	platform.Roles["u1"] = PlatformRoleAdmin

	r := newTestResolver(platform, NewMemoryOverlays(), NewMemoryMembershipProvider("org_members"))
	a, err := r.Resolve(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.OrgRole != OrgRoleNone {
		t.Fatalf("expected org role none without org, got %v", a.OrgRole)
	}
	if a.Permissions != fullPermissions() {
		t.Fatalf("expected full permissions for platform admin, got %+v", a.Permissions)
	}
}

func TestResolve_OrgAdminSupersedesOverlay(t *testing.T) {
	for _, role := range []OrgRole{OrgRoleOwner, OrgRoleAdmin} {
		members := NewMemoryMembershipProvider("org_members")
		members.Add(Membership{OrgID: "org-1", UserID: "u1", Role: role})

		overlays := NewMemoryOverlays()
		overlays.Set("u1", "org-1", Permissions{}) // all false, must be ignored

		r := newTestResolver(NewMemoryPlatformRoles(), overlays, members)
		a, err := r.Resolve(context.Background(), "u1", "org-1")
		if err != nil {
			t.Fatalf("role %v: unexpected err: %v", role, err)
		}
		if !a.IsOrgAdmin {
			t.Fatalf("role %v: expected org admin", role)
		}
		if a.Permissions != fullPermissions() {
			t.Fatalf("role %v: expected full permissions, got %+v", role, a.Permissions)
		}
	}
}

func TestResolve_ManagerOverlayUsedVerbatim(t *testing.T) {
	members := NewMemoryMembershipProvider("org_members")
	members.Add(Membership{OrgID: "org-1", UserID: "u1", Role: OrgRoleManager})

	overlays := NewMemoryOverlays()
	overlays.Set("u1", "org-1", Permissions{CanManageAgents: true})

	r := newTestResolver(NewMemoryPlatformRoles(), overlays, members)
	a, err := r.Resolve(context.Background(), "u1", "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := Permissions{CanManageAgents: true}
	if a.Permissions != want {
		t.Fatalf("expected overlay verbatim %+v, got %+v", want, a.Permissions)
	}
	if a.IsOrgAdmin {
		t.Fatalf("manager must not be org admin")
	}
}

func TestResolve_ManagerWithoutOverlayDefaultsFalse(t *testing.T) {
	members := NewMemoryMembershipProvider("org_members")
	members.Add(Membership{OrgID: "org-1", UserID: "u1", Role: OrgRoleManager})

	r := newTestResolver(NewMemoryPlatformRoles(), NewMemoryOverlays(), members)
	a, err := r.Resolve(context.Background(), "u1", "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Permissions != (Permissions{}) {
		t.Fatalf("expected all-false permissions, got %+v", a.Permissions)
	}
}

func TestResolve_AgentAndNonMemberGetNoPermissions(t *testing.T) {
	members := NewMemoryMembershipProvider("org_members")
	members.Add(Membership{OrgID: "org-1", UserID: "agent", Role: OrgRoleAgent})

	overlays := NewMemoryOverlays()
	// Overlay rows only apply to org_manager; this one must be ignored.
	overlays.Set("agent", "org-1", Permissions{CanViewBilling: true})

	r := newTestResolver(NewMemoryPlatformRoles(), overlays, members)

	a, err := r.Resolve(context.Background(), "agent", "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Permissions != (Permissions{}) {
		t.Fatalf("agent: expected no permissions, got %+v", a.Permissions)
	}

	b, err := r.Resolve(context.Background(), "stranger", "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if b.OrgRole != OrgRoleNone || b.Permissions != (Permissions{}) {
		t.Fatalf("non-member: unexpected authority %+v", b)
	}
}

func TestResolve_ChainShortCircuitsOnDefiniteAnswer(t *testing.T) {
	canonical := NewMemoryMembershipProvider("org_members")
	canonical.Add(Membership{OrgID: "org-1", UserID: "u1", Role: OrgRoleMember})
	legacy1 := NewMemoryMembershipProvider("organization_members")
	legacy2 := NewMemoryMembershipProvider("org_users")

	r := newTestResolver(NewMemoryPlatformRoles(), NewMemoryOverlays(), canonical, legacy1, legacy2)

	// Definite record on the canonical source.
	if _, err := r.Resolve(context.Background(), "u1", "org-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if legacy1.Calls != 0 || legacy2.Calls != 0 {
		t.Fatalf("legacy sources consulted after canonical found: %d/%d", legacy1.Calls, legacy2.Calls)
	}

	// Definite "no record" must also stop the chain.
	if _, err := r.Resolve(context.Background(), "nobody", "org-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if legacy1.Calls != 0 || legacy2.Calls != 0 {
		t.Fatalf("legacy sources consulted after canonical not-found: %d/%d", legacy1.Calls, legacy2.Calls)
	}
}

func TestResolve_FallsBackAcrossUnavailableSources(t *testing.T) {
	canonical := NewMemoryMembershipProvider("org_members")
	canonical.Err = errors.New("relation does not exist")
	legacy1 := NewMemoryMembershipProvider("organization_members")
	legacy1.Err = errors.New("relation does not exist")
	legacy2 := NewMemoryMembershipProvider("org_users")
	legacy2.Add(Membership{OrgID: "org-1", UserID: "u1", Role: OrgRoleAdmin})

	r := newTestResolver(NewMemoryPlatformRoles(), NewMemoryOverlays(), canonical, legacy1, legacy2)
	a, err := r.Resolve(context.Background(), "u1", "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// A record from a later fallback carries no precedence penalty.
	if a.OrgRole != OrgRoleAdmin || !a.IsOrgAdmin {
		t.Fatalf("unexpected authority: %+v", a)
	}
}

func TestResolve_AllSourcesUnavailableIsNotNoAccess(t *testing.T) {
	outage := errors.New("connection refused")
	canonical := NewMemoryMembershipProvider("org_members")
	canonical.Err = outage
	legacy1 := NewMemoryMembershipProvider("organization_members")
	legacy1.Err = outage
	legacy2 := NewMemoryMembershipProvider("org_users")
	legacy2.Err = outage

	r := newTestResolver(NewMemoryPlatformRoles(), NewMemoryOverlays(), canonical, legacy1, legacy2)
	_, err := r.Resolve(context.Background(), "u1", "org-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, outage) {
		t.Fatalf("expected cause retained, got %v", err)
	}
}

func TestResolve_PlatformLookupFailureIsUnavailable(t *testing.T) {
	platform := NewMemoryPlatformRoles()
	platform.Err = errors.New("timeout")

	r := newTestResolver(platform, NewMemoryOverlays(), NewMemoryMembershipProvider("org_members"))
	if _, err := r.Resolve(context.Background(), "u1", ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestResolve_PlatformManagerOrgOverlayNotMerged(t *testing.T) {
	platform := NewMemoryPlatformRoles()
	platform.Roles["u1"] = PlatformRoleManager

	members := NewMemoryMembershipProvider("org_members")
	members.Add(Membership{OrgID: "org-1", UserID: "u1", Role: OrgRoleManager})

	overlays := NewMemoryOverlays()
	overlays.Set("u1", "org-1", Permissions{CanViewBilling: true})

	r := newTestResolver(platform, overlays, members)
	a, err := r.Resolve(context.Background(), "u1", "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// platform_manager grants nothing at org level; only the overlay applies.
	want := Permissions{CanViewBilling: true}
	if a.Permissions != want {
		t.Fatalf("expected %+v, got %+v", want, a.Permissions)
	}
	if a.IsOrgAdmin {
		t.Fatalf("platform manager must not be org admin")
	}
}

func TestPGChainConsultsWriteTableFirst(t *testing.T) {
	// Membership writes target MembershipTable; if the chain's first link
	// named any other relation, a freshly upserted member would resolve to
	// no role whenever that relation exists and answers "no row".
	chain := NewPGMembershipChain(nil)
	if len(chain) == 0 {
		t.Fatalf("expected a non-empty chain")
	}
	if got := chain[0].Name(); got != MembershipTable {
		t.Fatalf("expected %s first, got %s", MembershipTable, got)
	}
}
