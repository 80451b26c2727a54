package db

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sponsorgrid/internal/models"
	"sponsorgrid/internal/placement"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return &Postgres{DB: mockDB}, mock
}

func eligibleDraft(slot string, now time.Time) models.Campaign {
	return models.Campaign{
		AdvertiserID:   1,
		Name:           "draft",
		Slot:           slot,
		Status:         models.StatusActive,
		IsVisible:      true,
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.AddDate(0, 0, 7),
		CreativeURL:    "https://cdn.example.com/c.png",
		DestinationURL: "https://example.com",
	}
}

const (
	advisoryLockSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`
	insertSQL       = `INSERT INTO campaigns`
	updateSQL       = `UPDATE campaigns SET`
)

func TestInsertCampaign_FeedCellTaken(t *testing.T) {
	now := time.Now()
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(advisoryLockSQL)).
		WithArgs("cell:1:2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM campaigns`)).
		WithArgs(1, 2, sqlmock.AnyArg(), sqlmock.AnyArg(), 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectRollback()

	draft := eligibleDraft(models.SlotFeed, now)
	draft.FeedTier = 1
	draft.TierSlot = 2
	err := p.InsertCampaign(context.Background(), &draft, now)
	require.Error(t, err)
	assert.True(t, placement.IsCapacity(err))
	assert.EqualError(t, err, "Tier 1 Slot 2 is already taken")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCampaign_FeedCellFreedByLapsedOccupant(t *testing.T) {
	// The occupant recheck carries the same window predicate the arbiter
	// uses, so an active campaign whose flight has ended does not hold the
	// cell and the insert goes through.
	now := time.Now()
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(advisoryLockSQL)).
		WithArgs("cell:2:3").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`start_date <= $3 AND end_date >= $4`)).
		WithArgs(2, 3, now, models.StartOfDay(now), 0).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))
	mock.ExpectCommit()

	draft := eligibleDraft(models.SlotFeed, now)
	draft.FeedTier = 2
	draft.TierSlot = 3
	require.NoError(t, p.InsertCampaign(context.Background(), &draft, now))
	assert.Equal(t, 11, draft.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCampaign_SlotFull(t *testing.T) {
	now := time.Now()
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(advisoryLockSQL)).
		WithArgs("slot:homepage-hero").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM campaigns`)).
		WithArgs(models.SlotHomepageHero, sqlmock.AnyArg(), sqlmock.AnyArg(), 0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	draft := eligibleDraft(models.SlotHomepageHero, now)
	err := p.InsertCampaign(context.Background(), &draft, now)
	require.Error(t, err)
	assert.EqualError(t, err, "Slot homepage-hero is full (1 max)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCampaign_IneligibleSkipsLock(t *testing.T) {
	// A paused draft occupies nothing: no advisory lock, no recount.
	now := time.Now()
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, now))
	mock.ExpectCommit()

	draft := eligibleDraft(models.SlotHomepageHero, now)
	draft.Status = models.StatusPaused
	require.NoError(t, p.InsertCampaign(context.Background(), &draft, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCampaign_RecountExcludesSelf(t *testing.T) {
	now := time.Now()
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(advisoryLockSQL)).
		WithArgs("slot:top-banner").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// The recount carries the row's own id so it never collides with its
	// persisted state.
	mock.ExpectQuery(regexp.QuoteMeta(`id <> $4`)).
		WithArgs(models.SlotTopBanner, sqlmock.AnyArg(), sqlmock.AnyArg(), 9).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c := eligibleDraft(models.SlotTopBanner, now)
	c.ID = 9
	require.NoError(t, p.UpdateCampaign(context.Background(), c, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCampaign_NotFound(t *testing.T) {
	now := time.Now()
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c := eligibleDraft(models.SlotJoinCTA, now)
	c.ID = 42
	c.Status = models.StatusEnded
	assert.ErrorIs(t, p.UpdateCampaign(context.Background(), c, now), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedCoord(t *testing.T) {
	assert.Equal(t, sql.NullInt64{}, feedCoord(0), "non-feed campaigns store NULL coordinates")
	assert.Equal(t, sql.NullInt64{Int64: 2, Valid: true}, feedCoord(2))
}
