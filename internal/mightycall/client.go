package mightycall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"callcenter-platform/internal/config"
)

// Client talks to the MightyCall contact-center API.
//
// Auth: POST /auth/token with client credentials yields a short-lived bearer
// token; every data request carries both the bearer token and the x-api-key
// header. Tokens are cached until shortly before expiry.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
	clock     func() time.Time

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

var ErrNotConfigured = errors.New("mightycall: client not configured")

func NewClient(cfg config.MightyCallConfig) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		http:      &http.Client{Timeout: cfg.Timeout},
		clock:     time.Now,
	}
}

func (c *Client) Name() string { return "mightycall" }

func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.accessToken(ctx)
	return err
}

func (c *Client) FetchDailyReport(ctx context.Context, req FetchReportRequest) (FetchReportResult, error) {
	if req.OrgID == "" {
		return FetchReportResult{}, errors.New("mightycall: org id required")
	}
	day := req.Day.UTC().Truncate(24 * time.Hour)

	q := url.Values{}
	q.Set("startUtc", day.Format(time.RFC3339))
	q.Set("endUtc", day.Add(24*time.Hour).Format(time.RFC3339))
	q.Set("pageSize", "1000")
	q.Set("skip", "0")

	var body struct {
		IsSuccess bool       `json:"isSuccess"`
		Data      []wireCall `json:"data"`
	}
	if err := c.getJSON(ctx, "/calls?"+q.Encode(), &body); err != nil {
		return FetchReportResult{}, err
	}

	out := FetchReportResult{OrgID: req.OrgID, Calls: make([]CallRecord, 0, len(body.Data))}
	for _, w := range body.Data {
		out.Calls = append(out.Calls, w.toRecord())
	}
	return out, nil
}

func (c *Client) ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error) {
	var body struct {
		IsSuccess bool `json:"isSuccess"`
		Data      struct {
			PhoneNumbers []struct {
				ID          string `json:"id"`
				PhoneNumber string `json:"phoneNumber"`
				Label       string `json:"label"`
				IsActive    bool   `json:"isActive"`
			} `json:"phoneNumbers"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/phonenumbers", &body); err != nil {
		return nil, err
	}

	out := make([]PhoneNumber, 0, len(body.Data.PhoneNumbers))
	for _, p := range body.Data.PhoneNumbers {
		out = append(out, PhoneNumber{
			ProviderNumberID: p.ID,
			Number:           p.PhoneNumber,
			Label:            p.Label,
			IsActive:         p.IsActive,
		})
	}
	return out, nil
}

func (c *Client) ListSMS(ctx context.Context, day time.Time) ([]SMSRecord, error) {
	d := day.UTC().Truncate(24 * time.Hour)

	q := url.Values{}
	q.Set("requestType", "Message")
	q.Set("dateFrom", d.Format(time.RFC3339))
	q.Set("dateTo", d.Add(24*time.Hour).Format(time.RFC3339))
	q.Set("pageSize", "1000")
	q.Set("page", "1")

	var body struct {
		Requests []struct {
			ID        string `json:"id"`
			From      string `json:"from"`
			To        string `json:"to"`
			Created   string `json:"created"`
			TextModel struct {
				Text string `json:"text"`
			} `json:"textModel"`
		} `json:"requests"`
	}
	if err := c.getJSON(ctx, "/journal/requests?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	out := make([]SMSRecord, 0, len(body.Requests))
	for _, r := range body.Requests {
		out = append(out, SMSRecord{
			ProviderMessageID: r.ID,
			From:              r.From,
			To:                r.To,
			Text:              r.TextModel.Text,
			CreatedAt:         parseTime(r.Created),
		})
	}
	return out, nil
}

// wireCall mirrors the provider's call payload. Field names vary across API
// versions, so timestamps come in as RFC3339 strings and are parsed leniently.
type wireCall struct {
	ID              string `json:"id"`
	From            string `json:"from"`
	To              string `json:"to"`
	Status          string `json:"status"`
	DateTimeUTC     string `json:"dateTimeUtc"`
	AnsweredTimeUTC string `json:"answeredTimeUtc"`
	Duration        int    `json:"duration"`
	CallRecord      struct {
		URI string `json:"uri"`
	} `json:"callRecord"`
}

func (w wireCall) toRecord() CallRecord {
	return CallRecord{
		ProviderCallID:  w.ID,
		From:            w.From,
		To:              w.To,
		Status:          strings.ToLower(w.Status),
		StartedAt:       parseTime(w.DateTimeUTC),
		AnsweredAt:      parseTime(w.AnsweredTimeUTC),
		DurationSeconds: w.Duration,
		RecordingURL:    w.CallRecord.URI,
	}
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-api-key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mightycall: request %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("mightycall: %s returned status %d: %s", path, res.StatusCode, string(b))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.baseURL == "" || c.apiKey == "" || c.apiSecret == "" {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.clock().Before(c.tokenExp) {
		return c.token, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"client_id":     c.apiKey,
		"client_secret": c.apiSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("mightycall: auth: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("mightycall: auth returned status %d: %s", res.StatusCode, string(b))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("mightycall: auth decode: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("mightycall: auth response missing access_token")
	}

	ttl := time.Duration(body.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c.token = body.AccessToken
	// Refresh a minute early to avoid racing expiry.
	c.tokenExp = c.clock().Add(ttl - time.Minute)
	return c.token, nil
}
