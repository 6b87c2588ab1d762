package authz

import "context"

// Membership associates a user with an org and a role.
// Extension is the optional MightyCall extension attached to the assignment.
type Membership struct {
	OrgID     string  `json:"org_id"`
	UserID    string  `json:"user_id"`
	Role      OrgRole `json:"role"`
	Extension string  `json:"mightycall_extension,omitempty"`
}

// Outcome distinguishes "answered with no record" from "could not answer".
// The difference is security-relevant: an unavailable source must never be
// collapsed into "no access".
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeUnavailable
)

// MembershipProvider looks up one membership data shape.
//
// Contract:
// - (m, OutcomeFound, nil) when a membership row exists.
// - (_, OutcomeNotFound, nil) when the source answered and there is no row.
// - (_, OutcomeUnavailable, err) when the source could not answer
//   (missing table, connectivity, timeout). err carries the cause.
//
// Providers are consulted in fixed priority order by the resolver; the first
// definite answer wins and later providers are not consulted.
type MembershipProvider interface {
	Name() string
	Lookup(ctx context.Context, userID, orgID string) (Membership, Outcome, error)
}

// PlatformRoleSource looks up a user's platform-level role.
// Absence of a profile row is PlatformRoleNone, not an error.
type PlatformRoleSource interface {
	PlatformRole(ctx context.Context, userID string) (PlatformRole, error)
}

// OverlaySource looks up the manager permission overlay for (user, org).
// ok is false when no overlay row exists; that is a valid state meaning
// all permissions default to false.
type OverlaySource interface {
	Overlay(ctx context.Context, userID, orgID string) (p Permissions, ok bool, err error)
}
