package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidCaller means the caller identity was missing or malformed.
	// Client error; never retried.
	ErrInvalidCaller = errors.New("authz: invalid caller")

	// ErrUnavailable means authority could not be established because the
	// data sources failed to answer. Retryable. Never downgraded to
	// "no access": inaccessible is not the same as absent.
	ErrUnavailable = errors.New("authz: authority unavailable")
)

// Resolver derives a caller's effective authority from storage on every call.
// It holds no mutable state and never trusts role input from the request.
type Resolver struct {
	platform    PlatformRoleSource
	memberships []MembershipProvider
	overlays    OverlaySource

	// lookupTimeout bounds each individual source lookup.
	lookupTimeout time.Duration
}

func NewResolver(platform PlatformRoleSource, memberships []MembershipProvider, overlays OverlaySource, lookupTimeout time.Duration) *Resolver {
	if lookupTimeout <= 0 {
		lookupTimeout = 3 * time.Second
	}
	return &Resolver{
		platform:      platform,
		memberships:   memberships,
		overlays:      overlays,
		lookupTimeout: lookupTimeout,
	}
}

// Resolve determines callerID's effective authority in orgID.
//
// orgID may be empty, in which case only platform-level authority is
// established and OrgRole is "none" (not an error).
//
// Permission tiers, first match wins, no merging across tiers:
//  1. platform_admin          -> all permissions
//  2. org_owner / org_admin   -> all permissions
//  3. org_manager             -> stored overlay verbatim, all-false if absent
//  4. anything else           -> all false
func (r *Resolver) Resolve(ctx context.Context, callerID, orgID string) (Authority, error) {
	if strings.TrimSpace(callerID) == "" {
		return Authority{}, ErrInvalidCaller
	}

	platformRole, err := r.resolvePlatformRole(ctx, callerID)
	if err != nil {
		return Authority{}, err
	}

	out := Authority{PlatformRole: platformRole, OrgRole: OrgRoleNone}
	if orgID != "" {
		role, err := r.resolveOrgRole(ctx, callerID, orgID)
		if err != nil {
			return Authority{}, err
		}
		out.OrgRole = role
	}

	out.IsOrgAdmin = out.OrgRole.IsAdmin() || platformRole == PlatformRoleAdmin

	switch {
	case platformRole == PlatformRoleAdmin:
		out.Permissions = fullPermissions()
	case out.OrgRole.IsAdmin():
		out.Permissions = fullPermissions()
	case out.OrgRole == OrgRoleManager:
		p, ok, err := r.resolveOverlay(ctx, callerID, orgID)
		if err != nil {
			return Authority{}, err
		}
		if ok {
			out.Permissions = p
		}
		// missing overlay: all four stay false
	}

	return out, nil
}

func (r *Resolver) resolvePlatformRole(ctx context.Context, callerID string) (PlatformRole, error) {
	if r.platform == nil {
		return PlatformRoleNone, nil
	}
	lctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	role, err := r.platform.PlatformRole(lctx, callerID)
	if err != nil {
		return PlatformRoleNone, fmt.Errorf("%w: platform role lookup: %w", ErrUnavailable, err)
	}
	return role, nil
}

// resolveOrgRole walks the membership provider chain in priority order.
// The first definite answer (found or not-found) terminates the chain; a
// record found via a later provider is treated identically to one found via
// the canonical source. Only if every provider is unavailable does the
// resolution fail.
func (r *Resolver) resolveOrgRole(ctx context.Context, callerID, orgID string) (OrgRole, error) {
	if len(r.memberships) == 0 {
		return OrgRoleNone, fmt.Errorf("%w: no membership providers configured", ErrUnavailable)
	}

	var causes []error
	for _, p := range r.memberships {
		lctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
		m, outcome, err := p.Lookup(lctx, callerID, orgID)
		cancel()

		switch outcome {
		case OutcomeFound:
			return m.Role, nil
		case OutcomeNotFound:
			return OrgRoleNone, nil
		default:
			if err == nil {
				err = errors.New("no answer")
			}
			causes = append(causes, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return OrgRoleNone, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(causes...))
}

func (r *Resolver) resolveOverlay(ctx context.Context, callerID, orgID string) (Permissions, bool, error) {
	if r.overlays == nil {
		return Permissions{}, false, nil
	}
	lctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	p, ok, err := r.overlays.Overlay(lctx, callerID, orgID)
	if err != nil {
		return Permissions{}, false, fmt.Errorf("%w: permission overlay lookup: %w", ErrUnavailable, err)
	}
	return p, ok, nil
}
