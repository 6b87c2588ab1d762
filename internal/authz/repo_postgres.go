package authz

import (
	"context"
	"database/sql"
	"errors"
)

// Postgres sources.
//
// Membership reads span three table shapes that coexist across deployments:
// org_members is canonical and is the only table membership writes target
// (internal/orgs); organization_members and org_users are read-only legacy
// shapes from earlier migrations. Any query failure (including an
// undefined-table error on a not-yet-migrated deployment) reports
// OutcomeUnavailable so the resolver can try the next shape; only
// sql.ErrNoRows is a definite "no membership".

// MembershipTable is the canonical membership relation. The write repository
// and the first link of the resolution chain must agree on it, or rows
// upserted through the admin API would never resolve.
const MembershipTable = "org_members"

type PGPlatformRoles struct {
	db *sql.DB
}

func NewPGPlatformRoles(db *sql.DB) *PGPlatformRoles { return &PGPlatformRoles{db: db} }

func (s *PGPlatformRoles) PlatformRole(ctx context.Context, userID string) (PlatformRole, error) {
	const q = `
SELECT global_role
FROM profiles
WHERE id = $1
`
	var role sql.NullString
	if err := s.db.QueryRowContext(ctx, q, userID).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No profile row means no platform-level authority.
			return PlatformRoleNone, nil
		}
		return PlatformRoleNone, err
	}
	if !role.Valid {
		return PlatformRoleNone, nil
	}
	return NormalizePlatformRole(role.String), nil
}

// NewPGMembershipChain returns the membership providers in canonical-first
// priority order.
func NewPGMembershipChain(db *sql.DB) []MembershipProvider {
	return []MembershipProvider{
		&pgOrgMembers{db: db},
		&pgOrganizationMembers{db: db},
		&pgOrgUsers{db: db},
	}
}

type pgOrgMembers struct {
	db *sql.DB
}

func (p *pgOrgMembers) Name() string { return MembershipTable }

func (p *pgOrgMembers) Lookup(ctx context.Context, userID, orgID string) (Membership, Outcome, error) {
	const q = `
SELECT org_id, user_id, role, COALESCE(mightycall_extension, '')
FROM ` + MembershipTable + `
WHERE user_id = $1 AND org_id = $2
`
	var m Membership
	var role string
	if err := p.db.QueryRowContext(ctx, q, userID, orgID).Scan(&m.OrgID, &m.UserID, &role, &m.Extension); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Membership{}, OutcomeNotFound, nil
		}
		return Membership{}, OutcomeUnavailable, err
	}
	m.Role = NormalizeOrgRole(role)
	return m, OutcomeFound, nil
}

type pgOrganizationMembers struct {
	db *sql.DB
}

func (p *pgOrganizationMembers) Name() string { return "organization_members" }

func (p *pgOrganizationMembers) Lookup(ctx context.Context, userID, orgID string) (Membership, Outcome, error) {
	const q = `
SELECT org_id, user_id, role
FROM organization_members
WHERE user_id = $1 AND org_id = $2
`
	var m Membership
	var role string
	if err := p.db.QueryRowContext(ctx, q, userID, orgID).Scan(&m.OrgID, &m.UserID, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Membership{}, OutcomeNotFound, nil
		}
		return Membership{}, OutcomeUnavailable, err
	}
	m.Role = NormalizeOrgRole(role)
	return m, OutcomeFound, nil
}

type pgOrgUsers struct {
	db *sql.DB
}

func (p *pgOrgUsers) Name() string { return "org_users" }

func (p *pgOrgUsers) Lookup(ctx context.Context, userID, orgID string) (Membership, Outcome, error) {
	const q = `
SELECT org_id, user_id, role, COALESCE(mightycall_extension, '')
FROM org_users
WHERE user_id = $1 AND org_id = $2
`
	var m Membership
	var role string
	if err := p.db.QueryRowContext(ctx, q, userID, orgID).Scan(&m.OrgID, &m.UserID, &role, &m.Extension); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Membership{}, OutcomeNotFound, nil
		}
		return Membership{}, OutcomeUnavailable, err
	}
	m.Role = NormalizeOrgRole(role)
	return m, OutcomeFound, nil
}

type PGOverlays struct {
	db *sql.DB
}

func NewPGOverlays(db *sql.DB) *PGOverlays { return &PGOverlays{db: db} }

func (s *PGOverlays) Overlay(ctx context.Context, userID, orgID string) (Permissions, bool, error) {
	const q = `
SELECT can_manage_agents, can_manage_phone_numbers, can_edit_service_targets, can_view_billing
FROM org_manager_permissions
WHERE user_id = $1 AND org_id = $2
`
	var p Permissions
	if err := s.db.QueryRowContext(ctx, q, userID, orgID).Scan(
		&p.CanManageAgents,
		&p.CanManagePhoneNumbers,
		&p.CanEditServiceTargets,
		&p.CanViewBilling,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Permissions{}, false, nil
		}
		return Permissions{}, false, err
	}
	return p, true, nil
}
