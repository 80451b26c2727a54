package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sponsorgrid/internal/models"
)

func postTrack(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.TrackHandler(rec, req)
	return rec
}

func TestTrackHandler_Click(t *testing.T) {
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotTopBanner, time.Now()))
	srv := newTestServer(store)

	rec := postTrack(t, srv, `{"campaign_id":1,"event":"click","slot":"top-banner"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Tracker.Drain(ctx))

	got, err := store.GetCampaign(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Clicks)
	assert.Len(t, store.clickIDs[1], 1)
}

func TestTrackHandler_Impression(t *testing.T) {
	store := newMemStore()
	store.add(liveCampaign(1, models.SlotHomepageHero, time.Now()))
	srv := newTestServer(store)

	rec := postTrack(t, srv, `{"campaign_id":1,"event":"impression"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Tracker.Drain(ctx))

	got, err := store.GetCampaign(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Impressions)
	assert.Empty(t, store.clickIDs[1], "impressions never create click events")
}

func TestTrackHandler_Rejects(t *testing.T) {
	srv := newTestServer(newMemStore())

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing campaign", `{"event":"click"}`},
		{"unknown event", `{"campaign_id":1,"event":"hover"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postTrack(t, srv, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTrackHandler_StoreFailureStays202(t *testing.T) {
	// The campaign does not exist, so the write fails, but the client
	// already got its acknowledgement.
	store := newMemStore()
	srv := newTestServer(store)

	rec := postTrack(t, srv, `{"campaign_id":99,"event":"click"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Tracker.Drain(ctx))
}
