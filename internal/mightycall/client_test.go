package mightycall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"callcenter-platform/internal/config"
)

func newTestServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		authCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
	})
	mux.HandleFunc("/calls", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("x-api-key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"isSuccess":true,"data":[
			{"id":"c1","from":"+15550001","to":"+15559999","status":"Answered",
			 "dateTimeUtc":"2025-08-20T09:00:00Z","answeredTimeUtc":"2025-08-20T09:00:08Z",
			 "duration":95,"callRecord":{"uri":"https://rec.example/c1.mp3"}},
			{"id":"c2","from":"+15550002","to":"+15559999","status":"Missed",
			 "dateTimeUtc":"2025-08-20T10:00:00Z","duration":0}
		]}`))
	})
	mux.HandleFunc("/journal/requests", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("requestType") != "Message" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"requests":[
			{"id":"m1","from":"+15550001","to":"+15559999","created":"2025-08-20T11:00:00Z",
			 "textModel":{"text":"call me back"}}
		]}`))
	})
	mux.HandleFunc("/api/phonenumbers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"isSuccess":true,"data":{"phoneNumbers":[
			{"id":"pn1","phoneNumber":"+15559999","label":"Support line","isActive":true}
		]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &authCalls
}

func newTestClient(srvURL string) *Client {
	return NewClient(config.MightyCallConfig{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   srvURL,
		Timeout:   5 * time.Second,
	})
}

func TestClient_FetchDailyReport(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(srv.URL)

	res, err := c.FetchDailyReport(context.Background(), FetchReportRequest{
		OrgID: "org-1",
		Day:   time.Date(2025, 8, 20, 13, 45, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(res.Calls))
	}

	first := res.Calls[0]
	if first.Status != "answered" {
		t.Fatalf("expected lowercased status, got %q", first.Status)
	}
	if first.AnsweredAt.Sub(first.StartedAt) != 8*time.Second {
		t.Fatalf("unexpected wait: %v", first.AnsweredAt.Sub(first.StartedAt))
	}
	if first.RecordingURL == "" {
		t.Fatalf("expected recording url")
	}
	if !res.Calls[1].AnsweredAt.IsZero() {
		t.Fatalf("missed call should have zero answered time")
	}
}

func TestClient_ReusesCachedToken(t *testing.T) {
	srv, authCalls := newTestServer(t)
	c := newTestClient(srv.URL)
	ctx := context.Background()

	if _, err := c.FetchDailyReport(ctx, FetchReportRequest{OrgID: "org-1", Day: time.Now()}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := c.ListPhoneNumbers(ctx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if *authCalls != 1 {
		t.Fatalf("expected 1 auth call, got %d", *authCalls)
	}
}

func TestClient_ListPhoneNumbers(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(srv.URL)

	nums, err := c.ListPhoneNumbers(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(nums) != 1 || nums[0].Number != "+15559999" || !nums[0].IsActive {
		t.Fatalf("unexpected numbers: %+v", nums)
	}
}

func TestClient_ListSMS(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(srv.URL)

	msgs, err := c.ListSMS(context.Background(), time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "call me back" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestClient_MissingCredentials(t *testing.T) {
	c := NewClient(config.MightyCallConfig{BaseURL: "https://example.test", Timeout: time.Second})

	if err := c.HealthCheck(context.Background()); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
