package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordonez/healthdash/internal/health"
)

func writeToken(t *testing.T, path string, token stravaToken) {
	t.Helper()
	data, err := json.Marshal(token)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestStravaFetchRefreshesExpiredToken(t *testing.T) {
	var refreshed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
			assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
			refreshed = true
			json.NewEncoder(w).Encode(stravaToken{
				AccessToken:  "fresh-access",
				RefreshToken: "fresh-refresh",
				ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
			})
		case "/athlete/activities":
			assert.Equal(t, "Bearer fresh-access", r.Header.Get("Authorization"))
			w.Write([]byte(`[
				{"type":"Run","start_date_local":"2024-03-01T07:30:00Z","distance":5000,"moving_time":1800},
				{"type":"Run","start_date_local":"2024-03-01T18:00:00Z","distance":3000,"moving_time":900},
				{"type":"Ride","start_date_local":"2024-03-01T12:00:00Z","distance":20000,"moving_time":3600}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tokenPath := filepath.Join(t.TempDir(), "strava_access_token.json")
	writeToken(t, tokenPath, stravaToken{
		AccessToken:  "stale",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
	})

	c := NewStravaConnector(srv.Client(), "client-id", "client-secret", tokenPath)
	c.baseURL = srv.URL
	c.tokenURL = srv.URL + "/oauth/token"

	records, err := c.Fetch(context.Background(),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, refreshed)

	// Runs on the same day are summed; the ride is ignored.
	require.Len(t, records, 1)
	rec := records[0].(*health.StravaRecord)
	assert.InDelta(t, 8.0, *rec.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 0.75, *rec.TotalDurationHours, 1e-9)

	// The refreshed token was cached for the next run.
	cached := c.loadToken()
	assert.Equal(t, "fresh-access", cached.AccessToken)
	assert.Equal(t, "fresh-refresh", cached.RefreshToken)
}

func TestStravaFetchWithoutCredentials(t *testing.T) {
	c := NewStravaConnector(http.DefaultClient, "", "", "unused.json")
	_, err := c.Fetch(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
}

func TestStravaFetchWithoutCachedToken(t *testing.T) {
	c := NewStravaConnector(http.DefaultClient, "id", "secret",
		filepath.Join(t.TempDir(), "missing.json"))
	_, err := c.Fetch(context.Background(), time.Now(), time.Now())
	require.Error(t, err, "no refresh token to bootstrap from")
}
