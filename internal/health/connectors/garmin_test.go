package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordonez/healthdash/internal/health"
)

func TestGarminFetchCombinesEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer garmin-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasPrefix(r.URL.Path, "/activitylist-service/"):
			w.Write([]byte(`[
				{"startTimeLocal":"2024-03-01 07:00:00","distance":10000,"duration":3600},
				{"startTimeLocal":"2024-03-01 18:30:00","distance":5000,"duration":1800}
			]`))
		case strings.HasPrefix(r.URL.Path, "/usersummary-service/stats/steps/"):
			w.Write([]byte(`[
				{"calendarDate":"2024-03-01","totalSteps":11000},
				{"calendarDate":"2024-03-02","totalSteps":null}
			]`))
		case strings.HasPrefix(r.URL.Path, "/usersummary-service/usersummary/"):
			if r.URL.Query().Get("calendarDate") == "2024-03-01" {
				w.Write([]byte(`{"restingHeartRate":48}`))
			} else {
				w.Write([]byte(`{}`))
			}
		case strings.HasPrefix(r.URL.Path, "/hrv-service/"):
			if strings.HasSuffix(r.URL.Path, "2024-03-01") {
				w.Write([]byte(`{"hrvSummary":{"lastNightAvg":52}}`))
			} else {
				w.Write([]byte(`{}`))
			}
		case strings.HasPrefix(r.URL.Path, "/metrics-service/"):
			w.Write([]byte(`[{"generic":{"vo2MaxValue":51.5}}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewGarminConnector(srv.Client(), "garmin-token")
	c.baseURL = srv.URL

	records, err := c.Fetch(context.Background(),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0].(*health.GarminRecord)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.InDelta(t, 15.0, *first.TotalDistanceKm, 1e-9, "activities summed per day")
	assert.InDelta(t, 1.5, *first.TotalDurationHours, 1e-9)
	assert.Equal(t, 11000, *first.Steps)
	assert.Equal(t, 48, *first.RestingHeartRate)
	assert.Equal(t, 52, *first.HRV)
	assert.InDelta(t, 51.5, *first.VO2Max, 1e-9)

	second := records[1].(*health.GarminRecord)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), second.Date)
	assert.Nil(t, second.Steps, "null steps are not recorded")
	assert.Nil(t, second.TotalDistanceKm)
	assert.InDelta(t, 51.5, *second.VO2Max, 1e-9, "vo2 alone still creates the day")
}

func TestGarminFetchWithoutToken(t *testing.T) {
	c := NewGarminConnector(http.DefaultClient, "")
	_, err := c.Fetch(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
}
