package calls

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory call store for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	Calls []Call

	Err error
}

func NewMemoryRepo(rows ...Call) *MemoryRepo { return &MemoryRepo{Calls: rows} }

func (r *MemoryRepo) ListOrgCallsToday(ctx context.Context, orgID string) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]Call, 0)
	for _, c := range r.Calls {
		if c.OrgID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListCallsToday(ctx context.Context) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]Call, len(r.Calls))
	copy(out, r.Calls)
	return out, nil
}
