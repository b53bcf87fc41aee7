package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/repository"
)

// RedisRepository implements the TrendingCache and StatsCache interfaces
// using Redis as the backend. Trending records are stored without a
// server-side TTL: the record carries its write time and freshness policy
// belongs to the domain service.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(addr, password string, db int) *RedisRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRepository{client: client}
}

var _ repository.TrendingCache = (*RedisRepository)(nil)
var _ repository.StatsCache = (*RedisRepository)(nil)

// Ping verifies the connection.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// trendingEnvelope wraps a cached trending list with its write time so
// readers can compute the record's age.
type trendingEnvelope struct {
	UpdatedAt time.Time               `json:"updatedAt"`
	Records   []model.TrendingProject `json:"records"`
}

func trendingKey(name string) string {
	return fmt.Sprintf("trending:%s", name)
}

// GetTrending returns the cached records under name and their age.
// A missing or malformed record is reported as absent, not as an error.
func (r *RedisRepository) GetTrending(ctx context.Context, name string) ([]model.TrendingProject, time.Duration, error) {
	data, err := r.client.Get(ctx, trendingKey(name)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("redis get %s: %w", name, err)
	}

	var env trendingEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		// Treat a corrupt record the same as a missing one.
		return nil, 0, nil
	}
	return env.Records, time.Since(env.UpdatedAt), nil
}

// PutTrending overwrites the record under name.
func (r *RedisRepository) PutTrending(ctx context.Context, name string, records []model.TrendingProject) error {
	data, err := json.Marshal(trendingEnvelope{
		UpdatedAt: time.Now(),
		Records:   records,
	})
	if err != nil {
		return fmt.Errorf("marshal trending records: %w", err)
	}
	if err := r.client.Set(ctx, trendingKey(name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

func statsKey(projectID string) string {
	return fmt.Sprintf("paystats:%s", projectID)
}

func (r *RedisRepository) SaveWindowStats(ctx context.Context, stats *model.ProjectWindowStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal window stats: %w", err)
	}
	return r.client.Set(ctx, statsKey(stats.ProjectID), data, 0).Err()
}

func (r *RedisRepository) GetWindowStats(ctx context.Context, projectID string) (*model.ProjectWindowStats, error) {
	data, err := r.client.Get(ctx, statsKey(projectID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return decodeWindowStats([]byte(data))
}

func (r *RedisRepository) GetAllWindowStats(ctx context.Context) ([]*model.ProjectWindowStats, error) {
	keys, err := r.client.Keys(ctx, "paystats:*").Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.ProjectWindowStats{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	result := make([]*model.ProjectWindowStats, 0, len(keys))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue // skip failed keys
		}
		stats, err := decodeWindowStats([]byte(data))
		if err != nil {
			continue // skip malformed data
		}
		result = append(result, stats)
	}
	return result, nil
}

func decodeWindowStats(data []byte) (*model.ProjectWindowStats, error) {
	var stats model.ProjectWindowStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal window stats: %w", err)
	}
	return &stats, nil
}
