package orgs

import "time"

// Organization is one call-center tenant. Every call, membership and
// metrics row is scoped to an organization.
type Organization struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Settings holds per-org service level configuration.
//
// New orgs start with an answer rate target of 90% and a maximum wait
// target of 30 seconds.
type Settings struct {
	OrgID string `json:"org_id" db:"org_id"`

	AnswerRateTargetPct  int `json:"answer_rate_target_pct" db:"answer_rate_target_pct"`
	MaxWaitTargetSeconds int `json:"max_wait_target_seconds" db:"max_wait_target_seconds"`

	// BusinessHours is a free-form schedule description, e.g. "Mon-Fri 9-17 ET".
	BusinessHours string `json:"business_hours,omitempty" db:"business_hours"`

	// EscalationEmail receives alerts when service targets are missed.
	EscalationEmail string `json:"escalation_email,omitempty" db:"escalation_email"`
}

func defaultSettings(orgID string) Settings {
	return Settings{
		OrgID:                orgID,
		AnswerRateTargetPct:  90,
		MaxWaitTargetSeconds: 30,
	}
}
