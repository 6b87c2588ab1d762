package reportsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/metrics"
	"callcenter-platform/internal/mightycall"
	"callcenter-platform/internal/orgs"
	"callcenter-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// SnapshotWriter persists recomputed daily snapshots.
type SnapshotWriter interface {
	UpsertSnapshot(ctx context.Context, snap metrics.Snapshot) error
}

// Invalidator drops cached metric reads after a sync rewrites rows.
type Invalidator interface {
	Invalidate(ctx context.Context, orgIDs ...string)
}

// OrgLister enumerates tenants for a full sync pass.
type OrgLister interface {
	ListOrgs(ctx context.Context) ([]orgs.Organization, error)
}

var ErrSyncInProgress = errors.New("reportsync: sync already running for org")

// Service pulls daily call reports from the telephony provider and rewrites
// each org's snapshot row.
//
// Concurrency: at most one sync runs per org at a time, enforced with a
// Redis-backed cap so the guarantee holds across processes. The cap carries
// a TTL so a crashed worker cannot wedge an org permanently.
type Service struct {
	provider mightycall.Provider
	orgs     OrgLister
	writer   SnapshotWriter
	cache    Invalidator
	audit    *audit.Service
	rdb      *redis.Client
	log      *slog.Logger
	clock    func() time.Time

	capTTL time.Duration
}

func NewService(provider mightycall.Provider, orgLister OrgLister, writer SnapshotWriter,
	cache Invalidator, auditSvc *audit.Service, rdb *redis.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		provider: provider,
		orgs:     orgLister,
		writer:   writer,
		cache:    cache,
		audit:    auditSvc,
		rdb:      rdb,
		log:      log,
		clock:    time.Now,
		capTTL:   10 * time.Minute,
	}
}

type OrgResult struct {
	OrgID      string `json:"org_id"`
	CallsSeen  int    `json:"calls_seen"`
	TotalCalls int    `json:"total_calls"`
}

// SyncOrg fetches today's provider report for one org and rewrites its
// snapshot row.
func (s *Service) SyncOrg(ctx context.Context, actorUserID, orgID string) (OrgResult, error) {
	if orgID == "" {
		return OrgResult{}, errors.New("reportsync: org id required")
	}

	if s.rdb != nil {
		key := "sync:metrics:org:" + orgID
		ok, err := utils.AcquireConcurrencyCap(ctx, s.rdb, key, 1, s.capTTL)
		if err != nil {
			return OrgResult{}, fmt.Errorf("acquire sync cap: %w", err)
		}
		if !ok {
			return OrgResult{}, ErrSyncInProgress
		}
		defer func() {
			if rerr := utils.ReleaseConcurrencyCap(context.WithoutCancel(ctx), s.rdb, key); rerr != nil {
				s.log.Warn("release sync cap failed", slog.String("org_id", orgID), slog.String("error", rerr.Error()))
			}
		}()
	}

	res, err := s.syncOne(ctx, orgID)
	if err != nil {
		return OrgResult{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, orgID)
	}
	if s.audit != nil {
		msg := fmt.Sprintf("metrics sync: %d provider calls, %d after dedupe", res.CallsSeen, res.TotalCalls)
		if aerr := s.audit.LogSyncRun(ctx, orgID, actorUserID, msg); aerr != nil {
			s.log.Warn("audit append failed", slog.String("org_id", orgID), slog.String("error", aerr.Error()))
		}
	}
	return res, nil
}

// SyncAll runs SyncOrg for every known org. One failing org does not stop the
// others; all failures are joined into the returned error.
func (s *Service) SyncAll(ctx context.Context, actorUserID string) ([]OrgResult, error) {
	all, err := s.orgs.ListOrgs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orgs: %w", err)
	}

	var results []OrgResult
	var errs []error
	for _, org := range all {
		res, err := s.SyncOrg(ctx, actorUserID, org.ID)
		if err != nil {
			s.log.Error("org sync failed", slog.String("org_id", org.ID), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("org %s: %w", org.ID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *Service) syncOne(ctx context.Context, orgID string) (OrgResult, error) {
	report, err := s.provider.FetchDailyReport(ctx, mightycall.FetchReportRequest{
		OrgID: orgID,
		Day:   s.clock().UTC(),
	})
	if err != nil {
		return OrgResult{}, fmt.Errorf("fetch report: %w", err)
	}

	rows := make([]calls.Call, 0, len(report.Calls))
	for _, rec := range report.Calls {
		rows = append(rows, calls.Call{
			CallID:          rec.ProviderCallID,
			OrgID:           orgID,
			FromNumber:      rec.From,
			ToNumber:        rec.To,
			Status:          calls.CallStatus(rec.Status),
			StartedAt:       rec.StartedAt,
			AnsweredAt:      rec.AnsweredAt,
			DurationSeconds: rec.DurationSeconds,
			RecordingURL:    rec.RecordingURL,
		})
	}

	// Snapshot math is shared with the live read path so the view row and
	// the fallback computation can never disagree.
	snap, ok, err := metrics.NewLiveSource(calls.NewMemoryRepo(rows...)).Snapshot(ctx, orgID)
	if err != nil {
		return OrgResult{}, err
	}
	if !ok {
		snap = metrics.Snapshot{OrgID: orgID}
	}

	if err := s.writer.UpsertSnapshot(ctx, snap); err != nil {
		return OrgResult{}, fmt.Errorf("upsert snapshot: %w", err)
	}
	return OrgResult{OrgID: orgID, CallsSeen: len(report.Calls), TotalCalls: snap.TotalCalls}, nil
}
