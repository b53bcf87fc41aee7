// Package repository defines the repository interfaces used by domain services.
// Domain logic depends on these interfaces; infrastructure packages provide
// the concrete implementations.
package repository

import (
	"context"
	"time"

	"fundStatApp/internal/domain/model"
)

// ProjectQuerier is the read interface over the subgraph indexer.
// All list methods are exhaustive: they return every matching record,
// or an error if any page of the underlying query fails.
type ProjectQuerier interface {
	// PayEventsSince returns all payment events with timestamp >= since.
	PayEventsSince(ctx context.Context, since int64) ([]model.PayEvent, error)

	// ProjectsByID returns the projects whose subgraph ids are in ids.
	// Unknown ids are silently omitted from the result.
	ProjectsByID(ctx context.Context, ids []string) ([]model.Project, error)

	// ProjectsByOwner returns all projects owned by the given address.
	ProjectsByOwner(ctx context.Context, owner string) ([]model.Project, error)

	// ParticipantsOf returns a wallet's participation records ordered by
	// balance descending.
	ParticipantsOf(ctx context.Context, wallet string) ([]model.Participant, error)
}

// TrendingCache is a named remote cache of trending snapshots.
// The cache reports the record's age; freshness policy (TTL comparison)
// belongs to the caller.
type TrendingCache interface {
	// GetTrending returns the cached records under name and their age.
	// A missing or malformed record yields (nil, 0, nil): absence is not
	// an error.
	GetTrending(ctx context.Context, name string) ([]model.TrendingProject, time.Duration, error)

	// PutTrending overwrites the record under name. Last writer wins.
	PutTrending(ctx context.Context, name string, records []model.TrendingProject) error
}

// StatsCache stores rolling per-project window statistics for fast reads.
type StatsCache interface {
	SaveWindowStats(ctx context.Context, stats *model.ProjectWindowStats) error
	GetWindowStats(ctx context.Context, projectID string) (*model.ProjectWindowStats, error)
	GetAllWindowStats(ctx context.Context) ([]*model.ProjectWindowStats, error)
}

// EventPersistence is durable storage for payment events and trending
// snapshots, used for history and analytics.
type EventPersistence interface {
	SavePayEvent(ctx context.Context, ev *model.PayEvent) error
	PayEventsSince(ctx context.Context, since int64) ([]*model.PayEvent, error)
	SaveTrendingSnapshot(ctx context.Context, records []model.TrendingProject) error
}
