package calls

import (
	"context"
	"database/sql"
)

// PGRepo reads raw call rows for the current day window.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) ListOrgCallsToday(ctx context.Context, orgID string) ([]Call, error) {
	const q = `
SELECT call_id, org_id, from_number, to_number, status, started_at, answered_at, duration_seconds, COALESCE(recording_url, '')
FROM calls
WHERE org_id = $1 AND started_at >= date_trunc('day', now())
ORDER BY started_at
`
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCalls(rows)
}

func (r *PGRepo) ListCallsToday(ctx context.Context) ([]Call, error) {
	const q = `
SELECT call_id, org_id, from_number, to_number, status, started_at, answered_at, duration_seconds, COALESCE(recording_url, '')
FROM calls
WHERE started_at >= date_trunc('day', now())
ORDER BY org_id, started_at
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCalls(rows)
}

func scanCalls(rows *sql.Rows) ([]Call, error) {
	var out []Call
	for rows.Next() {
		var c Call
		var answeredAt sql.NullTime
		if err := rows.Scan(
			&c.CallID,
			&c.OrgID,
			&c.FromNumber,
			&c.ToNumber,
			&c.Status,
			&c.StartedAt,
			&answeredAt,
			&c.DurationSeconds,
			&c.RecordingURL,
		); err != nil {
			return nil, err
		}
		if answeredAt.Valid {
			c.AnsweredAt = answeredAt.Time
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
