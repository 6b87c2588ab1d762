package metrics

import (
	"context"
	"math"
	"sort"

	"callcenter-platform/internal/calls"
)

// CallLister is the minimal raw-call read surface the live source needs.
type CallLister interface {
	ListOrgCallsToday(ctx context.Context, orgID string) ([]calls.Call, error)
	ListCallsToday(ctx context.Context) ([]calls.Call, error)
}

// LiveSource computes today's snapshots directly from raw call rows.
// It exists as a degraded-mode stand-in for deployments where the
// pre-aggregated view is missing or being rebuilt; normal reads go through
// the view-backed store, with this source wired in behind a FallbackSource.
type LiveSource struct {
	calls CallLister
}

func NewLiveSource(calls CallLister) *LiveSource { return &LiveSource{calls: calls} }

func (s *LiveSource) Snapshot(ctx context.Context, orgID string) (Snapshot, bool, error) {
	rows, err := s.calls.ListOrgCallsToday(ctx, orgID)
	if err != nil {
		return Snapshot{}, false, err
	}
	if len(rows) == 0 {
		return Snapshot{}, false, nil
	}
	return computeSnapshot(orgID, rows), true, nil
}

func (s *LiveSource) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.calls.ListCallsToday(ctx)
	if err != nil {
		return nil, err
	}

	byOrg := map[string][]calls.Call{}
	for _, c := range rows {
		byOrg[c.OrgID] = append(byOrg[c.OrgID], c)
	}

	orgIDs := make([]string, 0, len(byOrg))
	for id := range byOrg {
		orgIDs = append(orgIDs, id)
	}
	sort.Strings(orgIDs)

	out := make([]Snapshot, 0, len(orgIDs))
	for _, id := range orgIDs {
		out = append(out, computeSnapshot(id, byOrg[id]))
	}
	return out, nil
}

// computeSnapshot aggregates one org's raw calls into a snapshot row.
// Duplicate provider events for the same (started_at, to_number) pair are
// counted once; wait time is only accumulated for answered calls with both
// timestamps present.
func computeSnapshot(orgID string, rows []calls.Call) Snapshot {
	seen := map[string]struct{}{}
	snap := Snapshot{OrgID: orgID}
	waitSum := 0.0
	waitCount := 0

	for _, c := range rows {
		key := c.StartedAt.UTC().String() + "::" + c.ToNumber
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		snap.TotalCalls++
		if !c.Answered() {
			continue
		}
		snap.AnsweredCalls++
		if w := c.WaitSeconds(); w > 0 {
			waitSum += w
			waitCount++
		}
	}

	if snap.TotalCalls > 0 {
		snap.AnswerRatePct = int(math.Round(float64(snap.AnsweredCalls) / float64(snap.TotalCalls) * 100))
	}
	if waitCount > 0 {
		snap.AvgWaitSeconds = int(math.Round(waitSum / float64(waitCount)))
	}
	return snap
}
