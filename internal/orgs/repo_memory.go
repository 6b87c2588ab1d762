package orgs

import (
	"context"
	"sync"

	"callcenter-platform/internal/authz"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu sync.Mutex

	Orgs     []Organization
	Settings map[string]Settings
	// Members is keyed "org|user".
	Members map[string]authz.OrgRole
	// Extensions is keyed "org|user".
	Extensions map[string]string
	// Overlays is keyed "org|user".
	Overlays map[string]authz.Permissions

	Err error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Settings:   make(map[string]Settings),
		Members:    make(map[string]authz.OrgRole),
		Extensions: make(map[string]string),
		Overlays:   make(map[string]authz.Permissions),
	}
}

func memberKey(orgID, userID string) string { return orgID + "|" + userID }

func (r *MemoryRepo) CreateOrg(ctx context.Context, org Organization, settings Settings) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Orgs = append(r.Orgs, org)
	r.Settings[org.ID] = settings
	r.Members[memberKey(org.ID, org.CreatedBy)] = authz.OrgRoleAdmin
	return nil
}

func (r *MemoryRepo) ListOrgs(ctx context.Context) ([]Organization, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Organization, len(r.Orgs))
	copy(out, r.Orgs)
	return out, nil
}

func (r *MemoryRepo) UpsertMember(ctx context.Context, orgID, userID string, role authz.OrgRole, extension string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey(orgID, userID)
	r.Members[key] = role
	if extension != "" {
		r.Extensions[key] = extension
	} else {
		delete(r.Extensions, key)
	}
	return nil
}

func (r *MemoryRepo) RemoveMember(ctx context.Context, orgID, userID string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey(orgID, userID)
	if _, ok := r.Members[key]; !ok {
		return ErrNotFound
	}
	delete(r.Members, key)
	delete(r.Extensions, key)
	delete(r.Overlays, key)
	return nil
}

func (r *MemoryRepo) SetManagerPermissions(ctx context.Context, orgID, userID string, p authz.Permissions) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Overlays[memberKey(orgID, userID)] = p
	return nil
}
