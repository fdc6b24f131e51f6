package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordonez/healthdash/internal/health"
)

type stubStore struct {
	records []health.DailyRecord
}

func (s *stubStore) Load() ([]health.DailyRecord, error) { return s.records, nil }
func (s *stubStore) Save(r []health.DailyRecord) error   { s.records = r; return nil }

type stubExporter struct{}

func (stubExporter) Export([]health.DailyRecord) error { return nil }

func newTestApp(records []health.DailyRecord) (*fiber.App, *health.Service) {
	service := health.NewService(
		health.NewRegistry(),
		&stubStore{records: records},
		nil,
		stubExporter{},
		health.SyncedFiles{Dataset: "daily_data.json", CSV: "daily_data.csv"},
		nil,
	)
	app := fiber.New()
	RegisterRoutes(app, service)
	return app, service
}

func yesterday() time.Time {
	return health.Day(time.Now().UTC().AddDate(0, 0, -1))
}

func testRecords() []health.DailyRecord {
	score := 81
	steps := 9000
	day := yesterday()
	return []health.DailyRecord{{
		Date: day,
		Oura: &health.OuraRecord{
			Source:     health.SourceOura,
			Date:       day,
			SleepScore: &score,
			Steps:      &steps,
		},
	}}
}

func doGet(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	return resp
}

func TestDailyReturnsStoredDays(t *testing.T) {
	app, _ := newTestApp(testRecords())

	resp := doGet(t, app, "/api/v1/daily")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Days []health.DailyRecord `json:"days"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Days, 1)
	assert.Equal(t, 81, *body.Days[0].Oura.SleepScore)
}

func TestDailyRangeFilter(t *testing.T) {
	app, _ := newTestApp(testRecords())

	from := yesterday().AddDate(0, 0, 1).Format("2006-01-02")
	resp := doGet(t, app, "/api/v1/daily?from="+from)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDailyEmptyDataset(t *testing.T) {
	app, _ := newTestApp(nil)

	resp := doGet(t, app, "/api/v1/daily")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDailyRejectsBadRange(t *testing.T) {
	app, _ := newTestApp(testRecords())

	resp := doGet(t, app, "/api/v1/daily?from=2024-03-05&to=2024-03-01")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doGet(t, app, "/api/v1/daily?from=not-a-date")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeeklyDefaultsAndValidation(t *testing.T) {
	app, _ := newTestApp(testRecords())

	resp := doGet(t, app, "/api/v1/weekly")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Weeks  int                   `json:"weeks"`
		Series []health.WeeklySeries `json:"series"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 12, body.Weeks, "missing weeks falls back to default")
	assert.NotEmpty(t, body.Series)

	resp = doGet(t, app, "/api/v1/weekly?weeks=0")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "zero means default, not invalid")

	resp = doGet(t, app, "/api/v1/weekly?weeks=500")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsCatalog(t *testing.T) {
	app, _ := newTestApp(nil)

	resp := doGet(t, app, "/api/v1/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var catalog map[string]map[string]health.MetricMetadata
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))
	require.Contains(t, catalog, "oura")
	assert.Equal(t, "Sleep Score", catalog["oura"]["sleep_score"].PrettyName)
}

func TestStatusBeforeAndAfterRun(t *testing.T) {
	app, service := newTestApp(nil)

	resp := doGet(t, app, "/api/v1/status")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, err := service.Run(context.Background(), health.RunOptions{})
	require.NoError(t, err)

	resp = doGet(t, app, "/api/v1/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report health.RunReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.NotEmpty(t, report.ID)
}
