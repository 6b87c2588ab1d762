package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyOrgPrefix = "metrics:today:org:"
	cacheKeyAll       = "metrics:today:all"
)

// CachedSource wraps a snapshot source with a best-effort Redis cache.
// Cache failures never fail a read; they just fall through to the source.
// Absent rows are not cached so a newly-synced org shows up immediately.
type CachedSource struct {
	src SnapshotSource
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewCachedSource(src SnapshotSource, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedSource {
	if log == nil {
		log = slog.Default()
	}
	return &CachedSource{src: src, rdb: rdb, ttl: ttl, log: log}
}

func (s *CachedSource) Snapshot(ctx context.Context, orgID string) (Snapshot, bool, error) {
	if !s.enabled() {
		return s.src.Snapshot(ctx, orgID)
	}

	key := cacheKeyOrgPrefix + orgID
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var snap Snapshot
		if jerr := json.Unmarshal(raw, &snap); jerr == nil {
			return snap, true, nil
		}
	}

	snap, ok, err := s.src.Snapshot(ctx, orgID)
	if err != nil || !ok {
		return snap, ok, err
	}
	s.store(ctx, key, snap)
	return snap, true, nil
}

func (s *CachedSource) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	if !s.enabled() {
		return s.src.ListSnapshots(ctx)
	}

	if raw, err := s.rdb.Get(ctx, cacheKeyAll).Bytes(); err == nil {
		var rows []Snapshot
		if jerr := json.Unmarshal(raw, &rows); jerr == nil {
			return rows, nil
		}
	}

	rows, err := s.src.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, cacheKeyAll, rows)
	return rows, nil
}

// Invalidate drops cached entries after a sync rewrites snapshot rows.
func (s *CachedSource) Invalidate(ctx context.Context, orgIDs ...string) {
	if !s.enabled() {
		return
	}
	keys := make([]string, 0, len(orgIDs)+1)
	keys = append(keys, cacheKeyAll)
	for _, id := range orgIDs {
		keys = append(keys, cacheKeyOrgPrefix+id)
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Debug("metrics cache invalidate failed", "err", err)
	}
}

func (s *CachedSource) enabled() bool {
	return s.rdb != nil && s.ttl > 0
}

func (s *CachedSource) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.log.Debug("metrics cache store failed", "key", key, "err", err)
	}
}
