// Package service provides implementations of domain services that hold the
// core business logic. It depends only on domain models and repository
// interfaces, not on infrastructure implementations.
package service

import (
	"math/big"
	"sort"

	"fundStatApp/internal/domain/model"
)

// AccumulatePayStats folds a payment event stream into per-project
// statistics. For each event the amount is added to the project's volume
// and its payment count incremented; entries are created on first sight.
// Events with an empty project id or a nil amount are skipped.
func AccumulatePayStats(events []model.PayEvent) map[string]*model.ProjectStats {
	stats := make(map[string]*model.ProjectStats)
	for _, ev := range events {
		if ev.ProjectID == "" || ev.Amount == nil {
			continue
		}
		st, ok := stats[ev.ProjectID]
		if !ok {
			st = &model.ProjectStats{TrendingVolume: new(big.Int)}
			stats[ev.ProjectID] = st
		}
		st.TrendingVolume = new(big.Int).Add(st.TrendingVolume, ev.Amount)
		st.PaymentsCount++
	}
	return stats
}

// TrendingScore computes volume * count^2 with exact arithmetic.
func TrendingScore(st *model.ProjectStats) *big.Int {
	count := big.NewInt(int64(st.PaymentsCount))
	return new(big.Int).Mul(st.TrendingVolume, new(big.Int).Mul(count, count))
}

// RankProjects merges projects with their accumulated statistics, orders
// them by trending score descending and truncates to count; a count below
// zero yields an empty result. The sort is
// stable: ties and unscorable projects keep their encounter order, with
// unscorable projects after all scored ones. Projects that appear in the
// event stream but not in the projects slice are absent from the result.
func RankProjects(projects []model.Project, stats map[string]*model.ProjectStats, count int) []model.TrendingProject {
	ranked := make([]model.TrendingProject, 0, len(projects))
	for _, p := range projects {
		tp := model.TrendingProject{Project: p}
		if st, ok := stats[p.ID]; ok {
			tp.TrendingScore = TrendingScore(st)
			tp.TrendingVolume = st.TrendingVolume
			tp.TrendingPaymentsCount = st.PaymentsCount
		}
		ranked = append(ranked, tp)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].TrendingScore, ranked[j].TrendingScore
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Cmp(b) > 0
	})

	if count < 0 {
		count = 0
	}
	if count < len(ranked) {
		ranked = ranked[:count]
	}
	return ranked
}
