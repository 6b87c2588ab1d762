package calls

import "time"

// Call represents one org-scoped phone call record as synced from the
// telephony provider.
//
// Multi-tenant invariant: OrgID is required on every row.
type Call struct {
	CallID string `json:"call_id" db:"call_id"`
	OrgID  string `json:"org_id" db:"org_id"`

	FromNumber string `json:"from_number" db:"from_number"`
	ToNumber   string `json:"to_number" db:"to_number"`

	Status CallStatus `json:"status" db:"status"`

	StartedAt time.Time `json:"started_at" db:"started_at"`
	// AnsweredAt is zero when the call was never picked up.
	AnsweredAt time.Time `json:"answered_at,omitempty" db:"answered_at"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`
}

type CallStatus string

const (
	CallStatusAnswered  CallStatus = "answered"
	CallStatusCompleted CallStatus = "completed"
	CallStatusMissed    CallStatus = "missed"
	CallStatusBusy      CallStatus = "busy"
	CallStatusFailed    CallStatus = "failed"
	CallStatusVoicemail CallStatus = "voicemail"
)

// Answered reports whether the call counts as answered for metrics purposes.
func (c Call) Answered() bool {
	return c.Status == CallStatusAnswered || c.Status == CallStatusCompleted
}

// WaitSeconds is the time a caller waited before pickup. Zero when the call
// was never answered or timestamps are incomplete.
func (c Call) WaitSeconds() float64 {
	if c.AnsweredAt.IsZero() || c.StartedAt.IsZero() {
		return 0
	}
	d := c.AnsweredAt.Sub(c.StartedAt).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
