package service

import (
	"context"
	"log/slog"
	"sync"

	"fundStatApp/internal/domain/model"
)

// TrendingView is a subscription over TrendingService for callers that
// want a non-blocking "data or loading" snapshot, such as the WebSocket
// layer. Each parameter change starts a new request generation; a result
// arriving for an older generation is discarded so a stale computation can
// never overwrite a newer one.
type TrendingView struct {
	ctx context.Context
	svc *TrendingService
	log *slog.Logger

	mu      sync.Mutex
	count   int
	days    int
	gen     uint64
	data    []model.TrendingProject
	loading bool
}

// NewTrendingView creates a view for (count, days) and starts loading
// immediately. ctx bounds all refreshes for the lifetime of the view.
func NewTrendingView(ctx context.Context, svc *TrendingService, count, days int) *TrendingView {
	v := &TrendingView{
		ctx:     ctx,
		svc:     svc,
		log:     svc.log,
		count:   count,
		days:    days,
		loading: true,
	}
	go v.refresh(v.gen, count, days)
	return v
}

// SetParams switches the view to a new (count, days) pair. The previous
// generation's in-flight refresh, if any, is superseded.
func (v *TrendingView) SetParams(count, days int) {
	v.mu.Lock()
	if count == v.count && days == v.days {
		v.mu.Unlock()
		return
	}
	v.count = count
	v.days = days
	v.gen++
	v.data = nil
	v.loading = true
	gen := v.gen
	v.mu.Unlock()

	go v.refresh(gen, count, days)
}

// Refresh re-runs the pipeline for the current parameters, typically after
// the live feed signals new activity.
func (v *TrendingView) Refresh() {
	v.mu.Lock()
	v.loading = true
	gen, count, days := v.gen, v.count, v.days
	v.mu.Unlock()

	go v.refresh(gen, count, days)
}

func (v *TrendingView) refresh(gen uint64, count, days int) {
	data, err := v.svc.Trending(v.ctx, count, days)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		// Parameters changed while we were fetching.
		return
	}
	v.loading = false
	if err != nil {
		v.log.Error("trending refresh failed", "count", count, "days", days, "err", err)
		return
	}
	v.data = data
}

// Snapshot returns the last known result and whether a refresh is
// outstanding. data is nil until the first refresh for the current
// parameters completes.
func (v *TrendingView) Snapshot() (data []model.TrendingProject, loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data, v.loading
}
