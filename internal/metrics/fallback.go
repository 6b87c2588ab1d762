package metrics

import (
	"context"
	"errors"
	"log/slog"
)

// FallbackSource tries a primary snapshot source and, only when the primary
// cannot be read at all, a secondary. A definite answer from the primary
// (including "no row") is final; the secondary is a degraded-mode path, not
// a merge. When both fail, both causes are reported so the request surfaces
// as a fetch failure rather than a silent zero.
type FallbackSource struct {
	primary   SnapshotSource
	secondary SnapshotSource
	log       *slog.Logger
}

func NewFallbackSource(primary, secondary SnapshotSource, log *slog.Logger) *FallbackSource {
	if log == nil {
		log = slog.Default()
	}
	return &FallbackSource{primary: primary, secondary: secondary, log: log}
}

func (s *FallbackSource) Snapshot(ctx context.Context, orgID string) (Snapshot, bool, error) {
	snap, ok, err := s.primary.Snapshot(ctx, orgID)
	if err == nil {
		return snap, ok, nil
	}
	s.log.Warn("metrics primary source failed, using live fallback", "org_id", orgID, "err", err)

	snap, ok, ferr := s.secondary.Snapshot(ctx, orgID)
	if ferr != nil {
		return Snapshot{}, false, errors.Join(err, ferr)
	}
	return snap, ok, nil
}

func (s *FallbackSource) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.primary.ListSnapshots(ctx)
	if err == nil {
		return rows, nil
	}
	s.log.Warn("metrics primary source failed, using live fallback", "err", err)

	rows, ferr := s.secondary.ListSnapshots(ctx)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return rows, nil
}
