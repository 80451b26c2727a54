package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sponsorgrid/internal/models"
)

func postCampaign(t *testing.T, srv *Server, c models.Campaign) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(c)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/campaigns", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.CreateCampaignHandler(rec, req)
	return rec
}

func TestCreateCampaign(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(store)

	c := liveCampaign(0, models.SlotTopBanner, time.Now())
	rec := postCampaign(t, srv, c)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.SlotTopBanner, created.Slot)
}

func TestCreateCampaign_SlotFull(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotHomepageHero, now))
	srv := newTestServer(store)

	rec := postCampaign(t, srv, liveCampaign(0, models.SlotHomepageHero, now))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Slot homepage-hero is full (1 max)")
}

func TestCreateCampaign_FeedCellTaken(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	occupant := liveCampaign(1, models.SlotFeed, now)
	occupant.FeedTier = 1
	occupant.TierSlot = 2
	store.add(occupant)
	srv := newTestServer(store)

	draft := liveCampaign(0, models.SlotFeed, now)
	draft.FeedTier = 1
	draft.TierSlot = 2
	rec := postCampaign(t, srv, draft)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tier 1 Slot 2 is already taken")

	// The neighbouring cell is still open.
	draft.TierSlot = 3
	rec = postCampaign(t, srv, draft)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateCampaign_FeedWithoutCoordinate(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(store)

	rec := postCampaign(t, srv, liveCampaign(0, models.SlotFeed, time.Now()))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "feed campaigns require a tier and cell")
}

func TestCreateCampaign_Validation(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(store)
	now := time.Now()

	unknown := liveCampaign(0, "sidebar", now)
	rec := postCampaign(t, srv, unknown)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	backwards := liveCampaign(0, models.SlotNavbarCTA, now)
	backwards.StartDate, backwards.EndDate = backwards.EndDate, backwards.StartDate
	rec = postCampaign(t, srv, backwards)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	unnamed := liveCampaign(0, models.SlotNavbarCTA, now)
	unnamed.Name = ""
	rec = postCampaign(t, srv, unnamed)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCampaign_PausedBypassesArbitration(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotHomepageHero, now))
	srv := newTestServer(store)

	paused := liveCampaign(0, models.SlotHomepageHero, now)
	paused.Status = models.StatusPaused
	rec := postCampaign(t, srv, paused)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func putCampaign(t *testing.T, srv *Server, id string, c models.Campaign) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(c)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/admin/campaigns/"+id, bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": id})
	rec := httptest.NewRecorder()
	srv.UpdateCampaignHandler(rec, req)
	return rec
}

func TestUpdateCampaign(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotJoinCTA, now))
	srv := newTestServer(store)

	edited := liveCampaign(1, models.SlotJoinCTA, now)
	edited.Name = "renamed"
	rec := putCampaign(t, srv, "1", edited)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.GetCampaign(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
}

func TestUpdateCampaign_SelfSlotKept(t *testing.T) {
	// Editing the only eligible hero campaign must not collide with itself.
	now := time.Now()
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotHomepageHero, now))
	srv := newTestServer(store)

	edited := liveCampaign(1, models.SlotHomepageHero, now)
	edited.CTALabel = "Join now"
	rec := putCampaign(t, srv, "1", edited)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateCampaign_MoveIntoFullSlot(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotHomepageHero, now))
	store.add(liveCampaign(2, models.SlotJoinCTA, now))
	srv := newTestServer(store)

	moved := liveCampaign(2, models.SlotHomepageHero, now)
	rec := putCampaign(t, srv, "2", moved)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateCampaign_NotFound(t *testing.T) {
	srv := newTestServer(newMemStore())
	rec := putCampaign(t, srv, "42", liveCampaign(42, models.SlotJoinCTA, time.Now()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCampaign(t *testing.T) {
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotNavbarCTA, time.Now()))
	srv := newTestServer(store)

	req := httptest.NewRequest(http.MethodDelete, "/admin/campaigns/1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	srv.DeleteCampaignHandler(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.DeleteCampaignHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCampaign(t *testing.T) {
	store := newMemStore()
	store.add(liveCampaign(7, models.SlotTopBanner, time.Now()))
	srv := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/admin/campaigns/7", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})
	rec := httptest.NewRecorder()
	srv.GetCampaignHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 7, got.ID)
}

func TestListCampaigns(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotTopBanner, now))
	store.add(liveCampaign(2, models.SlotJoinCTA, now))
	srv := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/admin/campaigns", nil)
	rec := httptest.NewRecorder()
	srv.ListCampaignsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
