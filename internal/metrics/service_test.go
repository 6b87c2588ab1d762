package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"callcenter-platform/internal/calls"
)

func TestOrgSnapshot_MissingRowReturnsZeros(t *testing.T) {
	svc := NewService(NewMemorySnapshots())

	snap, err := svc.OrgSnapshot(context.Background(), "org-new")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := Snapshot{OrgID: "org-new"}
	if snap != want {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}

func TestOrgSnapshot_ReturnsStoredRow(t *testing.T) {
	svc := NewService(NewMemorySnapshots(
		Snapshot{OrgID: "org-1", TotalCalls: 42, AnsweredCalls: 40, AnswerRatePct: 95, AvgWaitSeconds: 12},
	))

	snap, err := svc.OrgSnapshot(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap.TotalCalls != 42 || snap.AvgWaitSeconds != 12 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestOrgSnapshot_SourceErrorIsFetchFailed(t *testing.T) {
	repo := NewMemorySnapshots()
	repo.Err = errors.New("connection refused")
	svc := NewService(repo)

	_, err := svc.OrgSnapshot(context.Background(), "org-1")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if !errors.Is(err, repo.Err) {
		t.Fatalf("expected cause retained, got %v", err)
	}
}

func TestGlobalSummary_AnswerRateIsVolumeWeighted(t *testing.T) {
	svc := NewService(NewMemorySnapshots(
		Snapshot{OrgID: "a", TotalCalls: 100, AnsweredCalls: 90, AnswerRatePct: 90},
		Snapshot{OrgID: "b", TotalCalls: 10, AnsweredCalls: 0, AnswerRatePct: 0},
	))

	out, err := svc.GlobalSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// round(90/110*100) = 82, not the 45 an average of 90% and 0% would give.
	if out.AnswerRatePct != 82 {
		t.Fatalf("expected 82, got %d", out.AnswerRatePct)
	}
}

func TestGlobalSummary_ZeroWaitOrgsExcludedFromWaitAverage(t *testing.T) {
	svc := NewService(NewMemorySnapshots(
		Snapshot{OrgID: "a", TotalCalls: 50, AnsweredCalls: 40, AvgWaitSeconds: 20},
		Snapshot{OrgID: "b", TotalCalls: 0, AnsweredCalls: 0, AvgWaitSeconds: 0},
	))

	out, err := svc.GlobalSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.AvgWaitSeconds != 20 {
		t.Fatalf("expected 20 (zero-wait org excluded), got %d", out.AvgWaitSeconds)
	}
}

func TestGlobalSummary_EndToEnd(t *testing.T) {
	svc := NewService(NewMemorySnapshots(
		Snapshot{OrgID: "a", TotalCalls: 500, AnsweredCalls: 450, AnswerRatePct: 90, AvgWaitSeconds: 30},
		Snapshot{OrgID: "b", TotalCalls: 200, AnsweredCalls: 100, AnswerRatePct: 50, AvgWaitSeconds: 0},
		Snapshot{OrgID: "c", TotalCalls: 0, AnsweredCalls: 0, AnswerRatePct: 0, AvgWaitSeconds: 0},
	))

	out, err := svc.GlobalSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := GlobalSummary{TotalCalls: 700, AnsweredCalls: 550, AnswerRatePct: 79, AvgWaitSeconds: 30}
	if out != want {
		t.Fatalf("expected %+v, got %+v", want, out)
	}
}

func TestGlobalSummary_EmptyIsAllZero(t *testing.T) {
	svc := NewService(NewMemorySnapshots())

	out, err := svc.GlobalSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != (GlobalSummary{}) {
		t.Fatalf("expected zero summary, got %+v", out)
	}
}

func TestGlobalSummary_SourceErrorNeverPartial(t *testing.T) {
	repo := NewMemorySnapshots(Snapshot{OrgID: "a", TotalCalls: 10})
	repo.Err = errors.New("read timeout")
	svc := NewService(repo)

	if _, err := svc.GlobalSummary(context.Background()); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestFallbackSource_UsesLiveComputationWhenViewFails(t *testing.T) {
	broken := NewMemorySnapshots()
	broken.Err = errors.New(`relation "client_metrics_today" does not exist`)

	started := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	live := NewLiveSource(calls.NewMemoryRepo(
		calls.Call{CallID: "c1", OrgID: "org-1", ToNumber: "+15550001", Status: calls.CallStatusAnswered, StartedAt: started, AnsweredAt: started.Add(10 * time.Second)},
		calls.Call{CallID: "c2", OrgID: "org-1", ToNumber: "+15550001", Status: calls.CallStatusMissed, StartedAt: started.Add(time.Minute)},
	))

	svc := NewService(NewFallbackSource(broken, live, nil))
	snap, err := svc.OrgSnapshot(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := Snapshot{OrgID: "org-1", TotalCalls: 2, AnsweredCalls: 1, AnswerRatePct: 50, AvgWaitSeconds: 10}
	if snap != want {
		t.Fatalf("expected %+v, got %+v", want, snap)
	}
}

func TestFallbackSource_BothFailingSurfacesFetchFailed(t *testing.T) {
	broken := NewMemorySnapshots()
	broken.Err = errors.New("view gone")
	brokenCalls := calls.NewMemoryRepo()
	brokenCalls.Err = errors.New("calls gone")

	svc := NewService(NewFallbackSource(broken, NewLiveSource(brokenCalls), nil))
	if _, err := svc.GlobalSummary(context.Background()); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestLiveSource_DeduplicatesProviderEvents(t *testing.T) {
	started := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	live := NewLiveSource(calls.NewMemoryRepo(
		calls.Call{CallID: "c1", OrgID: "org-1", ToNumber: "+15550001", Status: calls.CallStatusCompleted, StartedAt: started, AnsweredAt: started.Add(4 * time.Second)},
		// Same started_at + to_number: duplicate provider event.
		calls.Call{CallID: "c1-dup", OrgID: "org-1", ToNumber: "+15550001", Status: calls.CallStatusCompleted, StartedAt: started, AnsweredAt: started.Add(4 * time.Second)},
	))

	snap, ok, err := live.Snapshot(context.Background(), "org-1")
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}
	if snap.TotalCalls != 1 || snap.AnsweredCalls != 1 {
		t.Fatalf("expected deduped counts, got %+v", snap)
	}
}
