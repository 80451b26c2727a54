package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Service is the analytics sink for engagement events. Postgres stays the
// system of record for counters and click events; this column store exists
// for cheap time-bounded aggregates over high event volume. Implementations
// must return ErrUnavailable when the underlying storage is not configured.
type Service interface {
	// RecordEvent appends one engagement event row.
	RecordEvent(ctx context.Context, eventType string, campaignID int, requestID, slot string) error
	// ClicksSince returns the click count for a campaign at or after since.
	ClicksSince(ctx context.Context, campaignID int, since time.Time) (int64, error)
}

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB *sql.DB
}

// InitClickHouse connects to ClickHouse and ensures the events table exists.
func InitClickHouse(dsn string) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	create := `CREATE TABLE IF NOT EXISTS engagement_events (
       timestamp   DateTime,
       event_type  String,
       campaign_id Int32,
       request_id  String,
       slot        String
   ) ENGINE=MergeTree() ORDER BY (event_type, campaign_id, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db}, nil
}

// RecordEvent inserts a single event row into the events table.
func (a *Analytics) RecordEvent(ctx context.Context, eventType string, campaignID int, requestID, slot string) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	_, err := a.DB.ExecContext(ctx,
		`INSERT INTO engagement_events (timestamp, event_type, campaign_id, request_id, slot) VALUES (?,?,?,?,?)`,
		time.Now().UTC(), eventType, int32(campaignID), requestID, slot)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ClicksSince aggregates click events for a campaign from since onward.
func (a *Analytics) ClicksSince(ctx context.Context, campaignID int, since time.Time) (int64, error) {
	if a == nil || a.DB == nil {
		return 0, ErrUnavailable
	}
	var n int64
	err := a.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM engagement_events WHERE event_type = 'click' AND campaign_id = ? AND timestamp >= ?`,
		int32(campaignID), since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return n, nil
}

// Close shuts down the ClickHouse connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
