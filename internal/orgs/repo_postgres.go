package orgs

import (
	"context"
	"database/sql"
	"fmt"

	"callcenter-platform/internal/authz"
	"callcenter-platform/pkg/utils"
)

// PGRepo persists organizations in Postgres.
//
// Memberships are written only to authz.MembershipTable, the relation the
// authorization chain consults first, so an upserted role is visible to the
// very next Resolve call. The legacy membership shapes the chain falls back
// to are read-only and are never written here.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) CreateOrg(ctx context.Context, org Organization, settings Settings) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orgs (id, name, created_by, created_at)
			VALUES ($1, $2, $3, $4)
		`, org.ID, org.Name, org.CreatedBy, org.CreatedAt); err != nil {
			return fmt.Errorf("insert org: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO org_settings
				(org_id, answer_rate_target_pct, max_wait_target_seconds, business_hours, escalation_email)
			VALUES ($1, $2, $3, $4, $5)
		`, settings.OrgID, settings.AnswerRateTargetPct, settings.MaxWaitTargetSeconds,
			settings.BusinessHours, settings.EscalationEmail); err != nil {
			return fmt.Errorf("insert org settings: %w", err)
		}

		// The creator starts as org_admin so the org always has an admin.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO `+authz.MembershipTable+` (org_id, user_id, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (org_id, user_id) DO UPDATE SET role = EXCLUDED.role
		`, org.ID, org.CreatedBy, string(authz.OrgRoleAdmin)); err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
		return nil
	})
}

func (r *PGRepo) ListOrgs(ctx context.Context) ([]Organization, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(created_by, ''), created_at
		FROM orgs
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedBy, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpsertMember(ctx context.Context, orgID, userID string, role authz.OrgRole, extension string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO `+authz.MembershipTable+` (org_id, user_id, role, mightycall_extension)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (org_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			mightycall_extension = EXCLUDED.mightycall_extension
	`, orgID, userID, string(role), extension)
	return err
}

func (r *PGRepo) RemoveMember(ctx context.Context, orgID, userID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM `+authz.MembershipTable+` WHERE org_id = $1 AND user_id = $2
		`, orgID, userID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		// Overlays are meaningless without a membership.
		_, err = tx.ExecContext(ctx, `
			DELETE FROM org_manager_permissions WHERE org_id = $1 AND user_id = $2
		`, orgID, userID)
		return err
	})
}

func (r *PGRepo) SetManagerPermissions(ctx context.Context, orgID, userID string, p authz.Permissions) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO org_manager_permissions
			(org_id, user_id, can_manage_agents, can_manage_phone_numbers, can_edit_service_targets, can_view_billing)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (org_id, user_id) DO UPDATE SET
			can_manage_agents = EXCLUDED.can_manage_agents,
			can_manage_phone_numbers = EXCLUDED.can_manage_phone_numbers,
			can_edit_service_targets = EXCLUDED.can_edit_service_targets,
			can_view_billing = EXCLUDED.can_view_billing
	`, orgID, userID, p.CanManageAgents, p.CanManagePhoneNumbers, p.CanEditServiceTargets, p.CanViewBilling)
	return err
}
