package metrics

import (
	"context"
	"database/sql"
	"errors"
)

// PGStore reads the pre-aggregated client_metrics_today view and upserts
// snapshot rows on behalf of the provider sync.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Snapshot(ctx context.Context, orgID string) (Snapshot, bool, error) {
	const q = `
SELECT org_id, total_calls, answered_calls, answer_rate_pct, avg_wait_seconds
FROM client_metrics_today
WHERE org_id = $1
`
	var snap Snapshot
	if err := s.db.QueryRowContext(ctx, q, orgID).Scan(
		&snap.OrgID,
		&snap.TotalCalls,
		&snap.AnsweredCalls,
		&snap.AnswerRatePct,
		&snap.AvgWaitSeconds,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *PGStore) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	const q = `
SELECT org_id, total_calls, answered_calls, answer_rate_pct, avg_wait_seconds
FROM client_metrics_today
ORDER BY org_id
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(
			&snap.OrgID,
			&snap.TotalCalls,
			&snap.AnsweredCalls,
			&snap.AnswerRatePct,
			&snap.AvgWaitSeconds,
		); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	// All-or-nothing: a mid-scan failure discards everything rather than
	// letting a partially-read set skew the global aggregate.
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PGStore) UpsertSnapshot(ctx context.Context, snap Snapshot) error {
	const q = `
INSERT INTO client_metrics_today (org_id, total_calls, answered_calls, answer_rate_pct, avg_wait_seconds, updated_at)
VALUES ($1,$2,$3,$4,$5, now())
ON CONFLICT (org_id)
DO UPDATE SET total_calls = EXCLUDED.total_calls,
              answered_calls = EXCLUDED.answered_calls,
              answer_rate_pct = EXCLUDED.answer_rate_pct,
              avg_wait_seconds = EXCLUDED.avg_wait_seconds,
              updated_at = EXCLUDED.updated_at
`
	_, err := s.db.ExecContext(ctx, q,
		snap.OrgID,
		snap.TotalCalls,
		snap.AnsweredCalls,
		snap.AnswerRatePct,
		snap.AvgWaitSeconds,
	)
	return err
}
