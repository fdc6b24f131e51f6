package connectors

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordonez/healthdash/internal/health"
)

func TestParseDailySummary(t *testing.T) {
	csv := strings.Join([]string{
		`Date,Energy (kcal),Protein (g),Carbs (g),Fat (g)`,
		`2024-03-01,2250.4,140.2,220,80.5`,
		`2024-03-02,1980,,-,60`, // empty and junk cells become nil
	}, "\n")

	records, err := parseDailySummary(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0].(*health.CronometerRecord)
	assert.InDelta(t, 2250.4, *first.Calories, 1e-9)
	assert.InDelta(t, 140.2, *first.Protein, 1e-9)
	assert.InDelta(t, 220.0, *first.Carbs, 1e-9)
	assert.InDelta(t, 80.5, *first.Fat, 1e-9)

	second := records[1].(*health.CronometerRecord)
	assert.InDelta(t, 1980.0, *second.Calories, 1e-9)
	assert.Nil(t, second.Protein)
	assert.Nil(t, second.Carbs)
	assert.InDelta(t, 60.0, *second.Fat, 1e-9)
}

func TestParseDailySummaryRequiresDateColumn(t *testing.T) {
	_, err := parseDailySummary(strings.NewReader("Energy (kcal)\n2000\n"))
	require.Error(t, err)
}

func TestCronometerFetchAuthenticatesOnce(t *testing.T) {
	var authCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cronometer/app":
			authCalls++
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), "sesnonce-1")
			w.Write([]byte(`//OK["fetch-nonce-9"]`))
		case "/export":
			assert.Equal(t, "fetch-nonce-9", r.URL.Query().Get("nonce"))
			assert.Equal(t, "dailySummary", r.URL.Query().Get("generate"))
			w.Write([]byte("Date,Energy (kcal),Protein (g),Carbs (g),Fat (g)\n2024-03-01,2000,120,200,70\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewCronometerConnector(srv.Client(), "sesnonce-1")
	c.baseURL = srv.URL

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	records, err := c.Fetch(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Second fetch reuses the cached fetch nonce.
	_, err = c.Fetch(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, authCalls)
}

func TestCronometerFetchWithoutNonce(t *testing.T) {
	c := NewCronometerConnector(http.DefaultClient, "")
	_, err := c.Fetch(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
}
