package service_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/service"
)

func TestWindowedPayStats(t *testing.T) {
	// Setup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	statsService := service.NewWindowedPayStats(ctx, nil, nil, nil)

	// Test data
	now := time.Now().Unix()
	ev1 := &model.PayEvent{
		ProjectID: "2-1",
		Amount:    big.NewInt(50000),
		Timestamp: now,
	}
	ev2 := &model.PayEvent{
		ProjectID: "2-1",
		Amount:    big.NewInt(25000),
		Timestamp: now - 60,
	}

	// Test: Process events
	err := statsService.ProcessPayEvent(ctx, ev1)
	if err != nil {
		t.Fatalf("failed to process first event: %v", err)
	}
	err = statsService.ProcessPayEvent(ctx, ev2)
	if err != nil {
		t.Fatalf("failed to process second event: %v", err)
	}

	// Test: Get statistics for a specific project
	stats, err := statsService.GetWindowStats(ctx, "2-1")
	if err != nil {
		t.Fatalf("failed to get window stats: %v", err)
	}
	if stats == nil {
		t.Fatal("window stats not found")
	}

	// Verify statistics
	expectedVolume := big.NewInt(75000)
	if stats.Volume24H.Cmp(expectedVolume) != 0 {
		t.Errorf("expected 24h volume to be %s, got %s", expectedVolume, stats.Volume24H)
	}
	if stats.Volume7D.Cmp(expectedVolume) != 0 {
		t.Errorf("expected 7d volume to be %s, got %s", expectedVolume, stats.Volume7D)
	}
	if stats.Count24H != 2 {
		t.Errorf("expected 24h count to be 2, got %d", stats.Count24H)
	}
	if stats.Count7D != 2 {
		t.Errorf("expected 7d count to be 2, got %d", stats.Count7D)
	}

	// Test: Get all statistics
	allStats, err := statsService.GetAllWindowStats(ctx)
	if err != nil {
		t.Fatalf("failed to get all window stats: %v", err)
	}
	if len(allStats) != 1 {
		t.Errorf("expected 1 project statistic, got %d", len(allStats))
	}
}

// Two separate payments of the same amount to the same project within the
// same second are distinct contributions and must both count.
func TestWindowedPayStatsDistinctIdenticalPayments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	statsService := service.NewWindowedPayStats(ctx, nil, nil, nil)

	ts := time.Now().Unix()
	for i := 0; i < 2; i++ {
		ev := &model.PayEvent{ProjectID: "2-1", Amount: big.NewInt(100), Timestamp: ts}
		if err := statsService.ProcessPayEvent(ctx, ev); err != nil {
			t.Fatalf("failed to process event %d: %v", i, err)
		}
	}

	stats, err := statsService.GetWindowStats(ctx, "2-1")
	if err != nil {
		t.Fatalf("failed to get window stats: %v", err)
	}
	if stats == nil {
		t.Fatal("window stats not found")
	}
	if stats.Count24H != 2 {
		t.Errorf("expected Count24H=2 for two distinct payments, got %d", stats.Count24H)
	}
	if stats.Volume24H.Cmp(big.NewInt(200)) != 0 {
		t.Errorf("expected Volume24H=200, got %s", stats.Volume24H)
	}
}

func TestWindowedPayStatsOldEventOutside24H(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	statsService := service.NewWindowedPayStats(ctx, nil, nil, nil)

	// An event two days old stays inside the 7d window.
	old := &model.PayEvent{
		ProjectID: "2-9",
		Amount:    big.NewInt(100),
		Timestamp: time.Now().Add(-48 * time.Hour).Unix(),
	}
	if err := statsService.ProcessPayEvent(ctx, old); err != nil {
		t.Fatalf("failed to process event: %v", err)
	}

	stats, err := statsService.GetWindowStats(ctx, "2-9")
	if err != nil {
		t.Fatalf("failed to get window stats: %v", err)
	}
	if stats == nil {
		t.Fatal("window stats not found")
	}
	if stats.Volume7D.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected 7d volume 100, got %s", stats.Volume7D)
	}
}

func TestWindowedPayStatsUnknownProject(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	statsService := service.NewWindowedPayStats(ctx, nil, nil, nil)

	stats, err := statsService.GetWindowStats(ctx, "no-such-project")
	if err != nil {
		t.Fatalf("unknown project must not be an error: %v", err)
	}
	if stats != nil {
		t.Errorf("expected nil stats, got %v", stats)
	}
}
