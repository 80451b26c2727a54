package db

import (
	"context"
	"fmt"
	"time"
)

// IncrementImpressions bumps a campaign's all-time impression counter.
// Increment-in-place: many concurrent requests update the same row, so the
// addition happens in SQL, never read-modify-write in the application.
func (p *Postgres) IncrementImpressions(ctx context.Context, campaignID int) error {
	res, err := p.DB.ExecContext(ctx,
		`UPDATE campaigns SET impressions = impressions + 1 WHERE id = $1`, campaignID)
	if err != nil {
		return fmt.Errorf("increment impressions: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordClick bumps the campaign's all-time click counter and appends the
// immutable click event in one transaction, so the denormalized total and
// the event log can never drift apart.
func (p *Postgres) RecordClick(ctx context.Context, campaignID int, eventID string, occurredAt time.Time) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record click: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	res, err := tx.ExecContext(ctx,
		`UPDATE campaigns SET clicks = clicks + 1 WHERE id = $1`, campaignID)
	if err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO click_events (id, campaign_id, occurred_at) VALUES ($1,$2,$3)`,
		eventID, campaignID, occurredAt); err != nil {
		return fmt.Errorf("insert click event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record click: %w", err)
	}
	return nil
}

// ClicksSince returns the number of click events for a campaign at or after
// since. Time-bounded aggregates come from the event log; the all-time total
// lives on the campaign row.
func (p *Postgres) ClicksSince(ctx context.Context, campaignID int, since time.Time) (int64, error) {
	var n int64
	err := p.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM click_events WHERE campaign_id = $1 AND occurred_at >= $2`,
		campaignID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clicks since: %w", err)
	}
	return n, nil
}
