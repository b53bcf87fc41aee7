package service_test

import (
	"math/big"
	"testing"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/service"
)

func pay(projectID string, amount int64) model.PayEvent {
	return model.PayEvent{ProjectID: projectID, Amount: big.NewInt(amount), Timestamp: 1700000000}
}

func project(id string) model.Project {
	return model.Project{ID: id, Owner: "0xabc", CreatedAt: 1600000000}
}

func TestAccumulatePayStats(t *testing.T) {
	events := []model.PayEvent{
		pay("A", 10),
		pay("B", 5),
		pay("A", 3),
	}

	stats := service.AccumulatePayStats(events)

	if len(stats) != 2 {
		t.Fatalf("expected stats for 2 projects, got %d", len(stats))
	}
	if got := stats["A"].TrendingVolume; got.Cmp(big.NewInt(13)) != 0 {
		t.Errorf("expected volume 13 for A, got %s", got)
	}
	if stats["A"].PaymentsCount != 2 {
		t.Errorf("expected count 2 for A, got %d", stats["A"].PaymentsCount)
	}
	if got := stats["B"].TrendingVolume; got.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("expected volume 5 for B, got %s", got)
	}
	if stats["B"].PaymentsCount != 1 {
		t.Errorf("expected count 1 for B, got %d", stats["B"].PaymentsCount)
	}
}

func TestAccumulatePayStatsEmpty(t *testing.T) {
	stats := service.AccumulatePayStats(nil)
	if len(stats) != 0 {
		t.Errorf("expected empty stats, got %d entries", len(stats))
	}
}

func TestAccumulatePayStatsSkipsInvalidEvents(t *testing.T) {
	events := []model.PayEvent{
		{ProjectID: "", Amount: big.NewInt(10)},
		{ProjectID: "A", Amount: nil},
		pay("A", 7),
	}

	stats := service.AccumulatePayStats(events)

	if len(stats) != 1 {
		t.Fatalf("expected stats for 1 project, got %d", len(stats))
	}
	if stats["A"].PaymentsCount != 1 {
		t.Errorf("expected count 1, got %d", stats["A"].PaymentsCount)
	}
}

func TestTrendingScore(t *testing.T) {
	st := &model.ProjectStats{TrendingVolume: big.NewInt(13), PaymentsCount: 2}
	if got := service.TrendingScore(st); got.Cmp(big.NewInt(52)) != 0 {
		t.Errorf("expected score 52, got %s", got)
	}
}

// Scores must not lose precision for amounts beyond 64 bits.
func TestTrendingScoreLargeAmounts(t *testing.T) {
	volume, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	st := &model.ProjectStats{TrendingVolume: volume, PaymentsCount: 1000}

	want := new(big.Int).Mul(volume, big.NewInt(1000*1000))
	if got := service.TrendingScore(st); got.Cmp(want) != 0 {
		t.Errorf("expected score %s, got %s", want, got)
	}
}

func TestRankProjectsOrder(t *testing.T) {
	stats := service.AccumulatePayStats([]model.PayEvent{
		pay("A", 10),
		pay("B", 5),
		pay("A", 3),
	})
	// A: volume 13, count 2 => score 52. B: volume 5, count 1 => score 5.
	ranked := service.RankProjects([]model.Project{project("B"), project("A")}, stats, 10)

	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked projects, got %d", len(ranked))
	}
	if ranked[0].ID != "A" || ranked[1].ID != "B" {
		t.Errorf("expected order [A B], got [%s %s]", ranked[0].ID, ranked[1].ID)
	}
	if ranked[0].TrendingScore.Cmp(big.NewInt(52)) != 0 {
		t.Errorf("expected score 52 for A, got %s", ranked[0].TrendingScore)
	}
	if ranked[0].TrendingPaymentsCount != 2 {
		t.Errorf("expected payments count 2 for A, got %d", ranked[0].TrendingPaymentsCount)
	}
}

func TestRankProjectsTiesAreStable(t *testing.T) {
	stats := map[string]*model.ProjectStats{
		"X": {TrendingVolume: big.NewInt(10), PaymentsCount: 1},
		"Y": {TrendingVolume: big.NewInt(10), PaymentsCount: 1},
	}

	ranked := service.RankProjects([]model.Project{project("X"), project("Y")}, stats, 10)

	if ranked[0].ID != "X" || ranked[1].ID != "Y" {
		t.Errorf("tied projects must keep encounter order, got [%s %s]", ranked[0].ID, ranked[1].ID)
	}
}

func TestRankProjectsUnscoredSortLast(t *testing.T) {
	stats := map[string]*model.ProjectStats{
		"B": {TrendingVolume: big.NewInt(5), PaymentsCount: 1},
	}

	ranked := service.RankProjects([]model.Project{project("A"), project("B")}, stats, 10)

	if ranked[0].ID != "B" {
		t.Errorf("scored project must come first, got %s", ranked[0].ID)
	}
	if ranked[1].TrendingScore != nil {
		t.Errorf("unscored project must have nil score")
	}
}

func TestRankProjectsTruncation(t *testing.T) {
	stats := map[string]*model.ProjectStats{}
	projects := make([]model.Project, 5)
	for i := range projects {
		id := string(rune('A' + i))
		projects[i] = project(id)
		stats[id] = &model.ProjectStats{TrendingVolume: big.NewInt(int64(10 - i)), PaymentsCount: 1}
	}

	for _, count := range []int{-1, 0, 1, 3, 5, 10} {
		ranked := service.RankProjects(projects, stats, count)
		want := count
		if want < 0 {
			want = 0
		}
		if want > 5 {
			want = 5
		}
		if len(ranked) != want {
			t.Errorf("count=%d: expected %d results, got %d", count, want, len(ranked))
		}
	}
}

func TestRankProjectsDropsUnknownProjects(t *testing.T) {
	stats := service.AccumulatePayStats([]model.PayEvent{
		pay("A", 10),
		pay("ghost", 100),
	})

	// "ghost" appears in events but not in the project lookup.
	ranked := service.RankProjects([]model.Project{project("A")}, stats, 10)

	if len(ranked) != 1 || ranked[0].ID != "A" {
		t.Fatalf("expected only known project A, got %d results", len(ranked))
	}
}
