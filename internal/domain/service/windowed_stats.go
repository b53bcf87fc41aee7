package service

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/repository"
	"fundStatApp/internal/domain/useCases"
)

// WindowedPayStats maintains rolling per-project payment statistics over
// trailing 24h and 7d windows, fed by the live event stream. Processed
// events are kept long enough to recompute the windows; a periodic cleanup
// drops everything older than the widest window. Feed-level redelivery is
// the caller's concern: every event handed in counts.
type WindowedPayStats struct {
	mu              sync.RWMutex
	stats           map[string]*model.ProjectWindowStats
	events          map[string][]model.PayEvent
	cache           repository.StatsCache
	storage         repository.EventPersistence // optional
	log             *slog.Logger
	cleanupInterval time.Duration
}

// NewWindowedPayStats creates the service and starts its background
// cleanup. cache, storage and log may be nil.
func NewWindowedPayStats(ctx context.Context, cache repository.StatsCache, storage repository.EventPersistence, log *slog.Logger) *WindowedPayStats {
	if log == nil {
		log = slog.Default()
	}
	s := &WindowedPayStats{
		stats:           make(map[string]*model.ProjectWindowStats),
		events:          make(map[string][]model.PayEvent),
		cache:           cache,
		storage:         storage,
		log:             log,
		cleanupInterval: time.Minute,
	}
	go s.periodicCleanup(ctx)
	return s
}

var _ useCases.PayStatsService = (*WindowedPayStats)(nil)

func (s *WindowedPayStats) periodicCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireOldEvents(ctx)
		}
	}
}

func (s *WindowedPayStats) expireOldEvents(ctx context.Context) {
	now := time.Now()
	cutoff24h := now.Add(-24 * time.Hour).Unix()
	cutoff7d := now.Add(-7 * 24 * time.Hour).Unix()

	s.mu.Lock()
	updated := make([]*model.ProjectWindowStats, 0, len(s.events))
	for id, evs := range s.events {
		st := &model.ProjectWindowStats{
			ProjectID: id,
			Volume24H: new(big.Int),
			Volume7D:  new(big.Int),
		}
		valid := make([]model.PayEvent, 0, len(evs))

		for _, ev := range evs {
			if ev.Timestamp <= cutoff7d {
				continue
			}
			if ev.Timestamp > cutoff24h {
				st.Volume24H.Add(st.Volume24H, ev.Amount)
				st.Count24H++
			}
			st.Volume7D.Add(st.Volume7D, ev.Amount)
			st.Count7D++
			valid = append(valid, ev)
		}

		if len(valid) > 0 {
			st.LastUpdate = now
		}
		s.stats[id] = st
		s.events[id] = valid
		updated = append(updated, copyWindowStats(st))
	}
	s.mu.Unlock()

	// Cache round-trips happen outside the lock so a slow backend never
	// stalls event processing.
	if s.cache == nil {
		return
	}
	for _, st := range updated {
		if err := s.cache.SaveWindowStats(ctx, st); err != nil {
			s.log.Warn("failed to save window stats", "project", st.ProjectID, "err", err)
		}
	}
}

// ProcessPayEvent folds one live event into the rolling windows. Every
// event counts: two payments of the same amount to the same project in the
// same second are distinct contributions. Redelivery of the same feed
// message is filtered upstream by its feed id.
func (s *WindowedPayStats) ProcessPayEvent(ctx context.Context, ev *model.PayEvent) error {
	if ev == nil || ev.ProjectID == "" || ev.Amount == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.ProjectID] = append(s.events[ev.ProjectID], *ev)

	now := time.Now()
	st := s.stats[ev.ProjectID]
	if st == nil {
		st = &model.ProjectWindowStats{
			ProjectID: ev.ProjectID,
			Volume24H: new(big.Int),
			Volume7D:  new(big.Int),
		}
		s.stats[ev.ProjectID] = st
	}

	st.Volume24H.Add(st.Volume24H, ev.Amount)
	st.Count24H++
	st.Volume7D.Add(st.Volume7D, ev.Amount)
	st.Count7D++
	st.LastUpdate = now

	var err error
	if s.cache != nil {
		err = s.cache.SaveWindowStats(ctx, st)
	}
	if s.storage != nil {
		if storageErr := s.storage.SavePayEvent(ctx, ev); storageErr != nil && err == nil {
			err = storageErr
		}
	}
	return err
}

func (s *WindowedPayStats) GetWindowStats(ctx context.Context, projectID string) (*model.ProjectWindowStats, error) {
	s.mu.RLock()
	st, ok := s.stats[projectID]
	s.mu.RUnlock()

	if ok {
		cp := copyWindowStats(st)
		return cp, nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetWindowStats(ctx, projectID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}
	return nil, nil
}

func (s *WindowedPayStats) GetAllWindowStats(ctx context.Context) ([]*model.ProjectWindowStats, error) {
	s.mu.RLock()
	result := make([]*model.ProjectWindowStats, 0, len(s.stats))
	known := make(map[string]struct{}, len(s.stats))
	for id, st := range s.stats {
		result = append(result, copyWindowStats(st))
		known[id] = struct{}{}
	}
	s.mu.RUnlock()

	if s.cache != nil {
		cached, err := s.cache.GetAllWindowStats(ctx)
		if err == nil {
			for _, st := range cached {
				if _, ok := known[st.ProjectID]; !ok {
					result = append(result, st)
				}
			}
		}
	}
	return result, nil
}

func copyWindowStats(st *model.ProjectWindowStats) *model.ProjectWindowStats {
	cp := *st
	cp.Volume24H = new(big.Int).Set(st.Volume24H)
	cp.Volume7D = new(big.Int).Set(st.Volume7D)
	return &cp
}
