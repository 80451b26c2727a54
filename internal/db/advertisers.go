package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sponsorgrid/internal/models"
)

// InsertAdvertiser inserts a new advertiser record and returns the generated ID.
func (p *Postgres) InsertAdvertiser(ctx context.Context, a *models.Advertiser) error {
	err := p.DB.QueryRowContext(ctx,
		`INSERT INTO advertisers (name, contact_email) VALUES ($1,$2) RETURNING id`,
		a.Name, a.ContactEmail).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert advertiser: %w", err)
	}
	return nil
}

// GetAdvertiser returns an advertiser by ID, or ErrNotFound.
func (p *Postgres) GetAdvertiser(ctx context.Context, id int) (*models.Advertiser, error) {
	var a models.Advertiser
	var email sql.NullString
	err := p.DB.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(contact_email, '') FROM advertisers WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get advertiser: %w", err)
	}
	a.ContactEmail = email.String
	return &a, nil
}

// ListAdvertisers returns all advertisers.
func (p *Postgres) ListAdvertisers(ctx context.Context) ([]models.Advertiser, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT id, name, COALESCE(contact_email, '') FROM advertisers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query advertisers: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var out []models.Advertiser
	for rows.Next() {
		var a models.Advertiser
		if err := rows.Scan(&a.ID, &a.Name, &a.ContactEmail); err != nil {
			return nil, fmt.Errorf("scan advertiser: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
