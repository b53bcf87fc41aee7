package useCases

import (
	"context"
	"net/http"

	"fundStatApp/internal/domain/model"
)

// TrendingProvider serves ranked trending projects for a trailing window.
type TrendingProvider interface {
	Trending(ctx context.Context, count, days int) ([]model.TrendingProject, error)
}

// HoldingsProvider resolves the projects a wallet has paid into or owns.
type HoldingsProvider interface {
	Holdings(ctx context.Context, wallet string) ([]model.Project, error)
	OwnedProjects(ctx context.Context, wallet string) ([]model.Project, error)
}

// PayStatsService maintains rolling per-project payment statistics from
// the live event feed.
type PayStatsService interface {
	ProcessPayEvent(ctx context.Context, ev *model.PayEvent) error
	GetWindowStats(ctx context.Context, projectID string) (*model.ProjectWindowStats, error)
	GetAllWindowStats(ctx context.Context) ([]*model.ProjectWindowStats, error)
}

// Broadcaster pushes updates to WebSocket/API layers.
type Broadcaster interface {
	BroadcastWindowStats(stats *model.ProjectWindowStats)
	BroadcastTrending(records []model.TrendingProject)
	Handler() func(http.ResponseWriter, *http.Request)
}
