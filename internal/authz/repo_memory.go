package authz

import (
	"context"
	"sync"
)

// In-memory sources for tests and early development.

type MemoryPlatformRoles struct {
	mu    sync.Mutex
	Roles map[string]PlatformRole

	// Err, when set, makes every lookup fail (simulated outage).
	Err error
}

func NewMemoryPlatformRoles() *MemoryPlatformRoles {
	return &MemoryPlatformRoles{Roles: map[string]PlatformRole{}}
}

func (s *MemoryPlatformRoles) PlatformRole(ctx context.Context, userID string) (PlatformRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return PlatformRoleNone, s.Err
	}
	if r, ok := s.Roles[userID]; ok {
		return r, nil
	}
	return PlatformRoleNone, nil
}

// MemoryMembershipProvider is one link of the fallback chain.
// Calls counts lookups so tests can assert short-circuit behavior.
type MemoryMembershipProvider struct {
	mu sync.Mutex

	ProviderName string
	Rows         map[string]Membership // key: user_id|org_id

	// Err, when set, makes the provider report unavailable.
	Err error

	Calls int
}

func NewMemoryMembershipProvider(name string) *MemoryMembershipProvider {
	return &MemoryMembershipProvider{ProviderName: name, Rows: map[string]Membership{}}
}

func (p *MemoryMembershipProvider) Name() string { return p.ProviderName }

func (p *MemoryMembershipProvider) Add(m Membership) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Rows[m.UserID+"|"+m.OrgID] = m
}

func (p *MemoryMembershipProvider) Lookup(ctx context.Context, userID, orgID string) (Membership, Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	if p.Err != nil {
		return Membership{}, OutcomeUnavailable, p.Err
	}
	if m, ok := p.Rows[userID+"|"+orgID]; ok {
		return m, OutcomeFound, nil
	}
	return Membership{}, OutcomeNotFound, nil
}

type MemoryOverlays struct {
	mu   sync.Mutex
	Rows map[string]Permissions // key: user_id|org_id

	Err error
}

func NewMemoryOverlays() *MemoryOverlays {
	return &MemoryOverlays{Rows: map[string]Permissions{}}
}

func (s *MemoryOverlays) Set(userID, orgID string, p Permissions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rows[userID+"|"+orgID] = p
}

func (s *MemoryOverlays) Overlay(ctx context.Context, userID, orgID string) (Permissions, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Permissions{}, false, s.Err
	}
	p, ok := s.Rows[userID+"|"+orgID]
	return p, ok, nil
}
