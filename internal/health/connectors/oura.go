package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mordonez/healthdash/internal/health"
	"github.com/sony/gobreaker"
)

// OuraConnector pulls daily sleep, readiness and activity data from the
// Oura API v2.
type OuraConnector struct {
	accessToken string
	baseURL     string
	httpCfg     HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
}

func NewOuraConnector(client *http.Client, accessToken string) *OuraConnector {
	return &OuraConnector{
		accessToken: accessToken,
		baseURL:     "https://api.ouraring.com",
		httpCfg:     defaultHTTPConfig(client),
		circuit:     newBreaker("oura"),
	}
}

func (c *OuraConnector) Source() health.Source {
	return health.SourceOura
}

type ouraDailyEntry struct {
	Day   string `json:"day"`
	Score *int   `json:"score"`
	Steps *int   `json:"steps"`
}

type ouraSampleSeries struct {
	Interval float64    `json:"interval"`
	Items    []*float64 `json:"items"`
}

type ouraSleepPeriod struct {
	Day                string            `json:"day"`
	TotalSleepDuration *int              `json:"total_sleep_duration"` // seconds
	DeepSleepDuration  int               `json:"deep_sleep_duration"`
	LightSleepDuration int               `json:"light_sleep_duration"`
	RemSleepDuration   int               `json:"rem_sleep_duration"`
	HeartRate          *ouraSampleSeries `json:"heart_rate"`
	HRV                *ouraSampleSeries `json:"hrv"`
}

func (c *OuraConnector) Fetch(ctx context.Context, from, to time.Time) ([]health.AppRecord, error) {
	if c.accessToken == "" {
		return nil, fmt.Errorf("oura access token is not configured")
	}

	var sleepDaily struct {
		Data []ouraDailyEntry `json:"data"`
	}
	if err := c.get(ctx, "/v2/usercollection/daily_sleep", from, to, &sleepDaily); err != nil {
		return nil, fmt.Errorf("daily sleep: %w", err)
	}

	var periods struct {
		Data []ouraSleepPeriod `json:"data"`
	}
	if err := c.get(ctx, "/v2/usercollection/sleep", from, to, &periods); err != nil {
		return nil, fmt.Errorf("sleep periods: %w", err)
	}

	var readiness struct {
		Data []ouraDailyEntry `json:"data"`
	}
	if err := c.get(ctx, "/v2/usercollection/daily_readiness", from, to, &readiness); err != nil {
		return nil, fmt.Errorf("daily readiness: %w", err)
	}

	var activity struct {
		Data []ouraDailyEntry `json:"data"`
	}
	if err := c.get(ctx, "/v2/usercollection/daily_activity", from, to, &activity); err != nil {
		return nil, fmt.Errorf("daily activity: %w", err)
	}

	periodsByDay := make(map[string][]ouraSleepPeriod)
	for _, p := range periods.Data {
		periodsByDay[p.Day] = append(periodsByDay[p.Day], p)
	}
	readinessByDay := indexDaily(readiness.Data)
	activityByDay := indexDaily(activity.Data)

	var records []health.AppRecord
	for _, entry := range sleepDaily.Data {
		date, err := time.Parse("2006-01-02", entry.Day)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", entry.Day, err)
		}

		rec := &health.OuraRecord{
			Source:     health.SourceOura,
			Date:       health.Day(date),
			SleepScore: entry.Score,
		}
		if r, ok := readinessByDay[entry.Day]; ok {
			rec.ReadinessScore = r.Score
		}
		if a, ok := activityByDay[entry.Day]; ok {
			rec.ActivityScore = a.Score
			rec.Steps = a.Steps
		}

		summarizeSleep(rec, periodsByDay[entry.Day])
		records = append(records, rec)
	}
	return records, nil
}

// summarizeSleep folds a day's sleep periods into total duration and
// duration-weighted HR/HRV averages.
func summarizeSleep(rec *health.OuraRecord, periods []ouraSleepPeriod) {
	var (
		totalDuration   int
		hrWeightedSum   float64
		hrvWeightedSum  float64
		weightedSeconds float64
		lowestHR        *int
	)

	for _, p := range periods {
		duration := p.DeepSleepDuration + p.LightSleepDuration + p.RemSleepDuration
		if p.TotalSleepDuration != nil {
			duration = *p.TotalSleepDuration
		}
		totalDuration += duration

		if avg := weightedAverage(p.HeartRate); avg != nil {
			hrWeightedSum += *avg * float64(duration)
			weightedSeconds += float64(duration)
		}
		if avg := weightedAverage(p.HRV); avg != nil {
			hrvWeightedSum += *avg * float64(duration)
		}
		if low := lowestSample(p.HeartRate); low != nil {
			if lowestHR == nil || *low < *lowestHR {
				lowestHR = low
			}
		}
	}

	if totalDuration > 0 {
		hours := float64(totalDuration) / 3600
		rec.SleepDurationHours = &hours
	}
	if weightedSeconds > 0 {
		hr := hrWeightedSum / weightedSeconds
		rec.SleepHeartRate = &hr
		hrv := hrvWeightedSum / weightedSeconds
		rec.SleepHRV = &hrv
	}
	rec.SleepLowestHeartRate = lowestHR
}

// weightedAverage averages sample items, ignoring gaps (null samples).
// All samples within one series share the same interval, so this reduces to
// a plain mean over present values.
func weightedAverage(s *ouraSampleSeries) *float64 {
	if s == nil || len(s.Items) == 0 {
		return nil
	}
	var sum float64
	var n int
	for _, item := range s.Items {
		if item == nil {
			continue
		}
		sum += *item
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func lowestSample(s *ouraSampleSeries) *int {
	if s == nil {
		return nil
	}
	var low *int
	for _, item := range s.Items {
		if item == nil {
			continue
		}
		v := int(*item)
		if low == nil || v < *low {
			low = &v
		}
	}
	return low
}

func indexDaily(entries []ouraDailyEntry) map[string]ouraDailyEntry {
	m := make(map[string]ouraDailyEntry, len(entries))
	for _, e := range entries {
		m[e.Day] = e
	}
	return m
}

func (c *OuraConnector) get(ctx context.Context, path string, from, to time.Time, out any) error {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("start_date", from.Format("2006-01-02"))
		values.Set("end_date", to.Format("2006-01-02"))

		req, err := http.NewRequest(http.MethodGet, c.baseURL+path+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
