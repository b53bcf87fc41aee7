package storage

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/repository"
)

// ClickHouseRepository implements EventPersistence using ClickHouse as the
// backend. It stores raw payment events and point-in-time trending
// snapshots for historical analysis. Amounts are stored as decimal strings
// to keep smallest-unit precision.
type ClickHouseRepository struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  int
}

func NewClickHouseRepository(cfg ClickHouseConfig) (*ClickHouseRepository, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.Timeout) * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := createTablesIfNotExist(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &ClickHouseRepository{conn: conn}, nil
}

var _ repository.EventPersistence = (*ClickHouseRepository)(nil)

func createTablesIfNotExist(conn driver.Conn) error {
	err := conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS pay_events (
			project_id String,
			amount String,
			timestamp DateTime,
			processed_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (project_id, timestamp)
	`)
	if err != nil {
		return err
	}

	err = conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS trending_snapshots (
			project_id String,
			handle String,
			trending_score String,
			trending_volume String,
			trending_payments_count UInt32,
			rank UInt16,
			snapshot_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (snapshot_at, rank)
	`)

	return err
}

// SavePayEvent persists one payment event.
func (r *ClickHouseRepository) SavePayEvent(ctx context.Context, ev *model.PayEvent) error {
	query := `
		INSERT INTO pay_events (
			project_id, amount, timestamp
		) VALUES (
			?, ?, ?
		)
	`

	return r.conn.AsyncInsert(ctx, query, false,
		ev.ProjectID,
		ev.Amount.String(),
		time.Unix(ev.Timestamp, 0),
	)
}

// PayEventsSince retrieves payment events with timestamp >= since.
func (r *ClickHouseRepository) PayEventsSince(ctx context.Context, since int64) ([]*model.PayEvent, error) {
	query := `
		SELECT project_id, amount, timestamp
		FROM pay_events
		WHERE timestamp >= ?
		ORDER BY timestamp
	`

	rows, err := r.conn.Query(ctx, query, time.Unix(since, 0))
	if err != nil {
		return nil, fmt.Errorf("query pay events: %w", err)
	}
	defer rows.Close()

	var events []*model.PayEvent
	for rows.Next() {
		var (
			projectID string
			amountStr string
			ts        time.Time
		)
		if err := rows.Scan(&projectID, &amountStr, &ts); err != nil {
			return nil, fmt.Errorf("scan pay event: %w", err)
		}
		amount, ok := new(big.Int).SetString(amountStr, 10)
		if !ok {
			return nil, fmt.Errorf("invalid stored amount %q", amountStr)
		}
		events = append(events, &model.PayEvent{
			ProjectID: projectID,
			Amount:    amount,
			Timestamp: ts.Unix(),
		})
	}
	return events, rows.Err()
}

// SaveTrendingSnapshot persists one computed top-K ranking.
func (r *ClickHouseRepository) SaveTrendingSnapshot(ctx context.Context, records []model.TrendingProject) error {
	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO trending_snapshots (
			project_id, handle, trending_score, trending_volume, trending_payments_count, rank
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare snapshot batch: %w", err)
	}

	for i, rec := range records {
		score := ""
		if rec.TrendingScore != nil {
			score = rec.TrendingScore.String()
		}
		volume := ""
		if rec.TrendingVolume != nil {
			volume = rec.TrendingVolume.String()
		}
		if err := batch.Append(
			rec.ID,
			rec.Handle,
			score,
			volume,
			uint32(rec.TrendingPaymentsCount),
			uint16(i+1),
		); err != nil {
			return fmt.Errorf("append snapshot row: %w", err)
		}
	}
	return batch.Send()
}
