package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidRequest = errors.New("metrics: invalid request")

	// ErrFetchFailed means the metrics source could not be read. Retryable.
	// Partial aggregates are never returned behind it.
	ErrFetchFailed = errors.New("metrics: fetch failed")
)

// SnapshotSource abstracts read access to daily metrics snapshots.
//
// Snapshot returns ok=false when no row exists for the org; that is a valid
// state (new org, no calls yet), not an error.
type SnapshotSource interface {
	Snapshot(ctx context.Context, orgID string) (snap Snapshot, ok bool, err error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
}

// Service aggregates daily metrics snapshots into per-org and global views.
// Read-only; no state beyond the injected source.
type Service struct {
	src SnapshotSource
}

func NewService(src SnapshotSource) *Service { return &Service{src: src} }

// OrgSnapshot returns orgID's daily snapshot, or a zero-valued snapshot when
// none exists yet.
func (s *Service) OrgSnapshot(ctx context.Context, orgID string) (Snapshot, error) {
	if orgID == "" {
		return Snapshot{}, ErrInvalidRequest
	}
	if s.src == nil {
		return Snapshot{}, errors.New("metrics: source not configured")
	}

	snap, ok, err := s.src.Snapshot(ctx, orgID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if !ok {
		return Snapshot{OrgID: orgID}, nil
	}
	snap.OrgID = orgID
	return snap, nil
}

// GlobalSummary combines all organizations' snapshots into one summary.
//
// The answer rate is recomputed from the summed counts rather than averaged
// across orgs: averaging percentages would weight a 10-call org the same as
// a 10000-call org. The wait average only includes orgs whose recorded wait
// is nonzero, since a zero there means "no data".
func (s *Service) GlobalSummary(ctx context.Context) (GlobalSummary, error) {
	if s.src == nil {
		return GlobalSummary{}, errors.New("metrics: source not configured")
	}

	rows, err := s.src.ListSnapshots(ctx)
	if err != nil {
		return GlobalSummary{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	out := GlobalSummary{}
	waitSum := 0.0
	waitCount := 0
	for _, row := range rows {
		out.TotalCalls += row.TotalCalls
		out.AnsweredCalls += row.AnsweredCalls
		if row.AvgWaitSeconds > 0 {
			waitSum += float64(row.AvgWaitSeconds)
			waitCount++
		}
	}
	if out.TotalCalls > 0 {
		out.AnswerRatePct = roundToInt(float64(out.AnsweredCalls) / float64(out.TotalCalls) * 100)
	}
	if waitCount > 0 {
		out.AvgWaitSeconds = roundToInt(waitSum / float64(waitCount))
	}
	return out, nil
}

// roundToInt rounds half up for the non-negative values used here.
func roundToInt(v float64) int {
	return int(math.Round(v))
}
