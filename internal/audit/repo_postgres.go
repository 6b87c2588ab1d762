package audit

import (
	"context"
	"database/sql"
)

// PGRepo persists audit events in Postgres.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, org_id, type, actor_user_id, actor_role, target_user_id, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.OrgID, string(e.Type), e.ActorUserID, e.ActorRole, e.TargetUserID, e.Message, e.Metadata, e.CreatedAt)
	return err
}
