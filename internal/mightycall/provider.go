package mightycall

import (
	"context"
	"time"
)

// Provider defines the provider-agnostic interface used by the report sync
// worker.
//
// Rules:
// - No provider HTTP calls outside this package.
// - Keep request/response types provider-agnostic; raw payloads stay here.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// FetchDailyReport returns the provider's call records for one day.
	FetchDailyReport(ctx context.Context, req FetchReportRequest) (FetchReportResult, error)

	ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error)

	// ListSMS returns the provider's message journal for one UTC day.
	ListSMS(ctx context.Context, day time.Time) ([]SMSRecord, error)
}

// FetchReportRequest asks for one org's call records on one UTC day.
type FetchReportRequest struct {
	OrgID string `json:"org_id"`

	// Day is truncated to a UTC calendar day.
	Day time.Time `json:"day"`
}

type FetchReportResult struct {
	OrgID string       `json:"org_id"`
	Calls []CallRecord `json:"calls"`
}

// CallRecord is one call as reported by the provider.
type CallRecord struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string `json:"provider_call_id"`

	// From and To are E.164 where possible.
	From string `json:"from"`
	To   string `json:"to"`

	// Status is the provider's disposition, lowercased
	// (answered, completed, missed, busy, failed, voicemail).
	Status string `json:"status"`

	StartedAt  time.Time `json:"started_at"`
	AnsweredAt time.Time `json:"answered_at,omitempty"`

	DurationSeconds int `json:"duration_seconds"`

	RecordingURL string `json:"recording_url,omitempty"`
}

// SMSRecord is one message from the provider's journal.
type SMSRecord struct {
	ProviderMessageID string    `json:"provider_message_id"`
	From              string    `json:"from"`
	To                string    `json:"to"`
	Text              string    `json:"text"`
	CreatedAt         time.Time `json:"created_at"`
}

type PhoneNumber struct {
	ProviderNumberID string `json:"provider_number_id"`
	// Number is E.164.
	Number   string `json:"number"`
	Label    string `json:"label,omitempty"`
	IsActive bool   `json:"is_active"`
}
