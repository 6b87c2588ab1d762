package metrics

// Snapshot is one organization's precomputed daily call metrics row.
// The aggregator treats it as an already-aggregated fact; it is produced by
// the reporting view or the provider sync, never computed here from raw rows.
//
// AvgWaitSeconds is 0 when no call in the window had a recorded wait.
// Zero means "no data", not "instant answer".
type Snapshot struct {
	OrgID          string `json:"org_id,omitempty"`
	TotalCalls     int    `json:"total_calls"`
	AnsweredCalls  int    `json:"answered_calls"`
	AnswerRatePct  int    `json:"answer_rate_pct"`
	AvgWaitSeconds int    `json:"avg_wait_seconds"`
}

// GlobalSummary is the cross-organization aggregate derived from all daily
// snapshots. Computed fresh on every request; never persisted.
type GlobalSummary struct {
	TotalCalls     int `json:"total_calls"`
	AnsweredCalls  int `json:"answered_calls"`
	AnswerRatePct  int `json:"answer_rate_pct"`
	AvgWaitSeconds int `json:"avg_wait_seconds"`
}
