package metrics

import (
	"context"
	"sync"
)

// MemorySnapshots is an in-memory snapshot source for tests and early
// development.
type MemorySnapshots struct {
	mu   sync.Mutex
	Rows []Snapshot

	// Err, when set, makes every read fail (simulated source outage).
	Err error
}

func NewMemorySnapshots(rows ...Snapshot) *MemorySnapshots {
	return &MemorySnapshots{Rows: rows}
}

func (r *MemorySnapshots) Snapshot(ctx context.Context, orgID string) (Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Snapshot{}, false, r.Err
	}
	for _, row := range r.Rows {
		if row.OrgID == orgID {
			return row, true, nil
		}
	}
	return Snapshot{}, false, nil
}

func (r *MemorySnapshots) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]Snapshot, len(r.Rows))
	copy(out, r.Rows)
	return out, nil
}

func (r *MemorySnapshots) UpsertSnapshot(ctx context.Context, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for i, row := range r.Rows {
		if row.OrgID == snap.OrgID {
			r.Rows[i] = snap
			return nil
		}
	}
	r.Rows = append(r.Rows, snap)
	return nil
}
