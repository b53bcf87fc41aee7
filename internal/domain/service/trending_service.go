package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/repository"
	"fundStatApp/internal/domain/useCases"
)

const secondsInDay = 24 * 60 * 60

// DefaultCacheTTL matches the remote cache refresh cadence: records older
// than this are recomputed, giving roughly five updates an hour.
const DefaultCacheTTL = 12 * time.Minute

// computeTimeout bounds one shared recomputation across all its pages.
const computeTimeout = 2 * time.Minute

// TrendingService ranks projects by payment activity over a trailing
// window, fronted by a remote TTL cache. The cache is advisory: losing it
// costs latency, never correctness.
type TrendingService struct {
	querier   repository.ProjectQuerier
	cache     repository.TrendingCache
	storage   repository.EventPersistence // optional, may be nil
	log       *slog.Logger
	cacheName string
	ttl       time.Duration
	group     singleflight.Group
	now       func() time.Time
}

// NewTrendingService wires a TrendingService. storage may be nil; when set,
// every recomputation also persists a trending snapshot for analytics.
func NewTrendingService(
	querier repository.ProjectQuerier,
	cache repository.TrendingCache,
	storage repository.EventPersistence,
	cacheName string,
	ttl time.Duration,
	log *slog.Logger,
) *TrendingService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &TrendingService{
		querier:   querier,
		cache:     cache,
		storage:   storage,
		cacheName: cacheName,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

var _ useCases.TrendingProvider = (*TrendingService)(nil)

// Trending returns the top count projects by trending score over the last
// days days. A cached record that is unexpired and holds at least count
// entries is returned as-is, trimmed to count, without touching the
// indexer. Otherwise the ranking is recomputed from raw payment events and
// the cache refreshed in the background.
func (s *TrendingService) Trending(ctx context.Context, count, days int) ([]model.TrendingProject, error) {
	if count <= 0 || days <= 0 {
		return nil, fmt.Errorf("trending: count and days must be positive, got count=%d days=%d", count, days)
	}

	cached, age, err := s.cache.GetTrending(ctx, s.cacheName)
	if err != nil {
		// A broken cache read only costs us the short-circuit.
		s.log.Warn("trending cache read failed", "name", s.cacheName, "err", err)
		cached = nil
	}

	if len(cached) >= count && age <= s.ttl {
		s.log.Debug("using trending cache", "name", s.cacheName, "age", age)
		return cached[:count:count], nil
	}
	s.log.Info("trending cache missing or expired", "name", s.cacheName, "entries", len(cached), "age", age)

	return s.recompute(ctx, count, days)
}

// recompute runs the full pipeline. Concurrent callers with the same
// (days, count) share a single in-flight computation.
func (s *TrendingService) recompute(ctx context.Context, count, days int) ([]model.TrendingProject, error) {
	key := fmt.Sprintf("%d:%d", days, count)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// The computation is shared with callers joining later, so it
		// must not die with the context of whoever started it.
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		return s.computeTrending(computeCtx, count, days)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.TrendingProject), nil
}

func (s *TrendingService) computeTrending(ctx context.Context, count, days int) ([]model.TrendingProject, error) {
	since := s.windowStart(days)

	events, err := s.querier.PayEventsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch pay events: %w", err)
	}

	stats := AccumulatePayStats(events)
	if len(stats) == 0 {
		return []model.TrendingProject{}, nil
	}

	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	projects, err := s.querier.ProjectsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}

	ranked := RankProjects(projects, stats, count)

	if len(ranked) > 0 {
		go s.persistTrending(ranked)
	}
	return ranked, nil
}

// persistTrending writes the freshly computed ranking to the remote cache
// and, when configured, to durable storage. It runs detached from the
// request: failures are logged and never reach the caller.
func (s *TrendingService) persistTrending(records []model.TrendingProject) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.cache.PutTrending(ctx, s.cacheName, records); err != nil {
		s.log.Error("failed to upload trending cache", "name", s.cacheName, "err", err)
	} else {
		s.log.Info("uploaded new trending cache", "name", s.cacheName, "entries", len(records))
	}

	if s.storage != nil {
		if err := s.storage.SaveTrendingSnapshot(ctx, records); err != nil {
			s.log.Error("failed to persist trending snapshot", "err", err)
		}
	}
}

// windowStart anchors the trailing window at the start of the current UTC
// day so repeated computations within a day see the same cutoff.
func (s *TrendingService) windowStart(days int) int64 {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return dayStart.Unix() - int64(days)*secondsInDay
}
