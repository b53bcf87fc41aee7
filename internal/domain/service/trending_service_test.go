package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/service"
)

// fakeQuerier implements repository.ProjectQuerier with per-test hooks.
type fakeQuerier struct {
	payEventsCalls int32
	projectsCalls  int32

	onPayEvents    func(since int64) ([]model.PayEvent, error)
	onPayEventsCtx func(ctx context.Context, since int64) ([]model.PayEvent, error)
	onProjectsByID func(ids []string) ([]model.Project, error)
}

func (f *fakeQuerier) PayEventsSince(ctx context.Context, since int64) ([]model.PayEvent, error) {
	atomic.AddInt32(&f.payEventsCalls, 1)
	if f.onPayEventsCtx != nil {
		return f.onPayEventsCtx(ctx, since)
	}
	if f.onPayEvents != nil {
		return f.onPayEvents(since)
	}
	return nil, nil
}

func (f *fakeQuerier) ProjectsByID(ctx context.Context, ids []string) ([]model.Project, error) {
	atomic.AddInt32(&f.projectsCalls, 1)
	if f.onProjectsByID != nil {
		return f.onProjectsByID(ids)
	}
	projects := make([]model.Project, len(ids))
	for i, id := range ids {
		projects[i] = model.Project{ID: id}
	}
	return projects, nil
}

func (f *fakeQuerier) ProjectsByOwner(ctx context.Context, owner string) ([]model.Project, error) {
	return nil, nil
}

func (f *fakeQuerier) ParticipantsOf(ctx context.Context, wallet string) ([]model.Participant, error) {
	return nil, nil
}

// fakeCache implements repository.TrendingCache in memory.
type fakeCache struct {
	mu      sync.Mutex
	records []model.TrendingProject
	age     time.Duration
	getErr  error
	puts    [][]model.TrendingProject
	putCh   chan struct{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{putCh: make(chan struct{}, 16)}
}

func (f *fakeCache) GetTrending(ctx context.Context, name string) ([]model.TrendingProject, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, 0, f.getErr
	}
	return f.records, f.age, nil
}

func (f *fakeCache) PutTrending(ctx context.Context, name string, records []model.TrendingProject) error {
	f.mu.Lock()
	f.puts = append(f.puts, records)
	f.mu.Unlock()
	f.putCh <- struct{}{}
	return nil
}

func (f *fakeCache) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cachedRecords(n int) []model.TrendingProject {
	records := make([]model.TrendingProject, n)
	for i := range records {
		records[i] = model.TrendingProject{
			Project:       model.Project{ID: string(rune('a' + i))},
			TrendingScore: big.NewInt(int64(100 - i)),
		}
	}
	return records
}

func newService(q *fakeQuerier, c *fakeCache, ttl time.Duration) *service.TrendingService {
	return service.NewTrendingService(q, c, nil, "trending_test", ttl, quietLogger())
}

// A fresh cache with enough entries must short-circuit: no indexer calls,
// result trimmed to count.
func TestTrendingCacheShortCircuit(t *testing.T) {
	querier := &fakeQuerier{}
	cache := newFakeCache()
	cache.records = cachedRecords(5)
	cache.age = time.Minute

	svc := newService(querier, cache, 12*time.Minute)

	got, err := svc.Trending(context.Background(), 3, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].ID != "a" || got[2].ID != "c" {
		t.Errorf("expected cached records in order, got [%s .. %s]", got[0].ID, got[2].ID)
	}
	if atomic.LoadInt32(&querier.payEventsCalls) != 0 || atomic.LoadInt32(&querier.projectsCalls) != 0 {
		t.Error("fresh cache must not trigger indexer queries")
	}
}

func TestTrendingExpiredCacheRecomputes(t *testing.T) {
	querier := &fakeQuerier{
		onPayEvents: func(since int64) ([]model.PayEvent, error) {
			return []model.PayEvent{pay("A", 10), pay("A", 3), pay("B", 5)}, nil
		},
	}
	cache := newFakeCache()
	cache.records = cachedRecords(5)
	cache.age = 20 * time.Minute // past the 12 minute TTL

	svc := newService(querier, cache, 12*time.Minute)

	got, err := svc.Trending(context.Background(), 2, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != "A" {
		t.Errorf("expected A ranked first, got %s", got[0].ID)
	}
	if atomic.LoadInt32(&querier.payEventsCalls) != 1 {
		t.Errorf("expected exactly one recomputation, got %d", querier.payEventsCalls)
	}

	// The new ranking must be written back asynchronously.
	select {
	case <-cache.putCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a cache write after recomputation")
	}
	if cache.putCount() != 1 {
		t.Errorf("expected one cache write, got %d", cache.putCount())
	}
}

// A cache with fewer entries than requested counts as stale.
func TestTrendingUndersizedCacheRecomputes(t *testing.T) {
	querier := &fakeQuerier{
		onPayEvents: func(since int64) ([]model.PayEvent, error) {
			return []model.PayEvent{pay("A", 10)}, nil
		},
	}
	cache := newFakeCache()
	cache.records = cachedRecords(2)
	cache.age = time.Minute

	svc := newService(querier, cache, 12*time.Minute)

	if _, err := svc.Trending(context.Background(), 5, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&querier.payEventsCalls) != 1 {
		t.Errorf("undersized cache must trigger recomputation, got %d calls", querier.payEventsCalls)
	}
}

// No events in the window is an empty result, not an error, and nothing
// is written to the cache.
func TestTrendingEmptyWindow(t *testing.T) {
	querier := &fakeQuerier{}
	cache := newFakeCache()

	svc := newService(querier, cache, 12*time.Minute)

	got, err := svc.Trending(context.Background(), 5, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d records", len(got))
	}

	select {
	case <-cache.putCh:
		t.Error("empty result must not be written to the cache")
	case <-time.After(100 * time.Millisecond):
	}
}

// A failing cache read only disables the short-circuit; the pipeline
// still runs and the error never reaches the caller.
func TestTrendingCacheReadFailure(t *testing.T) {
	querier := &fakeQuerier{
		onPayEvents: func(since int64) ([]model.PayEvent, error) {
			return []model.PayEvent{pay("A", 10)}, nil
		},
	}
	cache := newFakeCache()
	cache.getErr = errors.New("cache unreachable")

	svc := newService(querier, cache, 12*time.Minute)

	got, err := svc.Trending(context.Background(), 5, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected recomputed result, got %d records", len(got))
	}
}

// A failing events fetch aborts the pipeline with no cache write.
func TestTrendingFetchFailureAborts(t *testing.T) {
	querier := &fakeQuerier{
		onPayEvents: func(since int64) ([]model.PayEvent, error) {
			return nil, errors.New("subgraph down")
		},
	}
	cache := newFakeCache()

	svc := newService(querier, cache, 12*time.Minute)

	if _, err := svc.Trending(context.Background(), 5, 7); err == nil {
		t.Fatal("expected an error when the events fetch fails")
	}
	if cache.putCount() != 0 {
		t.Error("failed pipeline must not write to the cache")
	}
}

// Concurrent requests for the same (days, count) share one in-flight
// recomputation.
func TestTrendingSingleFlight(t *testing.T) {
	release := make(chan struct{})
	querier := &fakeQuerier{
		onPayEvents: func(since int64) ([]model.PayEvent, error) {
			<-release
			return []model.PayEvent{pay("A", 10)}, nil
		},
	}
	cache := newFakeCache()

	svc := newService(querier, cache, 12*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Trending(context.Background(), 5, 7); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	// Let all goroutines reach the pipeline before releasing it.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls := atomic.LoadInt32(&querier.payEventsCalls); calls != 1 {
		t.Errorf("expected one shared recomputation, got %d", calls)
	}
}

// Cancelling the request that started a shared recomputation must not
// fail the computation for everyone who joined it.
func TestTrendingSurvivesCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	querier := &fakeQuerier{
		onPayEventsCtx: func(ctx context.Context, since int64) ([]model.PayEvent, error) {
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []model.PayEvent{pay("A", 10)}, nil
		},
	}
	svc := newService(querier, newFakeCache(), 12*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		records []model.TrendingProject
		err     error
	}
	done := make(chan result, 1)
	go func() {
		records, err := svc.Trending(ctx, 5, 7)
		done <- result{records, err}
	}()

	// Cancel the initiating request while the fetch is in flight.
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)

	res := <-done
	if res.err != nil {
		t.Fatalf("shared computation must outlive its initiator, got %v", res.err)
	}
	if len(res.records) != 1 || res.records[0].ID != "A" {
		t.Errorf("expected [A], got %v", res.records)
	}
}

func TestTrendingRejectsInvalidParams(t *testing.T) {
	svc := newService(&fakeQuerier{}, newFakeCache(), 12*time.Minute)

	if _, err := svc.Trending(context.Background(), 0, 7); err == nil {
		t.Error("expected error for count=0")
	}
	if _, err := svc.Trending(context.Background(), 5, -1); err == nil {
		t.Error("expected error for negative days")
	}
}
