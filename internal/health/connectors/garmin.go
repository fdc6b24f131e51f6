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

// GarminConnector pulls running activities, daily steps and wellness metrics
// from the Garmin Connect API using a pre-provisioned OAuth bearer token.
type GarminConnector struct {
	accessToken string
	baseURL     string
	httpCfg     HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
}

func NewGarminConnector(client *http.Client, accessToken string) *GarminConnector {
	return &GarminConnector{
		accessToken: accessToken,
		baseURL:     "https://connectapi.garmin.com",
		httpCfg:     defaultHTTPConfig(client),
		circuit:     newBreaker("garmin"),
	}
}

func (c *GarminConnector) Source() health.Source {
	return health.SourceGarmin
}

type garminActivity struct {
	StartTimeLocal string  `json:"startTimeLocal"` // "2006-01-02 15:04:05"
	Distance       float64 `json:"distance"`       // meters
	Duration       float64 `json:"duration"`       // seconds
}

type garminDailySteps struct {
	CalendarDate string `json:"calendarDate"`
	TotalSteps   *int   `json:"totalSteps"`
}

func (c *GarminConnector) Fetch(ctx context.Context, from, to time.Time) ([]health.AppRecord, error) {
	if c.accessToken == "" {
		return nil, fmt.Errorf("garmin access token is not configured")
	}

	byDay := make(map[string]*health.GarminRecord)
	record := func(day string) (*health.GarminRecord, error) {
		if r, ok := byDay[day]; ok {
			return r, nil
		}
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		r := &health.GarminRecord{Source: health.SourceGarmin, Date: health.Day(date)}
		byDay[day] = r
		return r, nil
	}

	// Running activities, summed per calendar day.
	values := url.Values{}
	values.Set("startDate", from.Format("2006-01-02"))
	values.Set("endDate", to.Format("2006-01-02"))
	values.Set("activityType", "running")

	var activities []garminActivity
	path := "/activitylist-service/activities/search/activities?" + values.Encode()
	if err := c.get(ctx, path, &activities); err != nil {
		return nil, fmt.Errorf("activities: %w", err)
	}
	for _, a := range activities {
		start, err := time.Parse("2006-01-02 15:04:05", a.StartTimeLocal)
		if err != nil {
			continue
		}
		rec, err := record(start.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		addFloat(&rec.TotalDistanceKm, a.Distance/1000)
		addFloat(&rec.TotalDurationHours, a.Duration/3600)
	}

	// Daily steps for the whole window in one call.
	var steps []garminDailySteps
	path = fmt.Sprintf("/usersummary-service/stats/steps/daily/%s/%s",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err := c.get(ctx, path, &steps); err != nil {
		return nil, fmt.Errorf("daily steps: %w", err)
	}
	for _, s := range steps {
		if s.TotalSteps == nil {
			continue
		}
		rec, err := record(s.CalendarDate)
		if err != nil {
			return nil, err
		}
		rec.Steps = s.TotalSteps
	}

	// RHR, HRV and VO2 max are per-day endpoints.
	for day := health.Day(from); !day.After(health.Day(to)); day = day.AddDate(0, 0, 1) {
		dayStr := day.Format("2006-01-02")

		var wellness struct {
			RestingHeartRate *int `json:"restingHeartRate"`
		}
		if err := c.get(ctx, "/usersummary-service/usersummary/daily?calendarDate="+dayStr, &wellness); err == nil &&
			wellness.RestingHeartRate != nil {
			rec, err := record(dayStr)
			if err != nil {
				return nil, err
			}
			rec.RestingHeartRate = wellness.RestingHeartRate
		}

		var hrv struct {
			HRVSummary struct {
				LastNightAvg *int `json:"lastNightAvg"`
			} `json:"hrvSummary"`
		}
		if err := c.get(ctx, "/hrv-service/hrv/"+dayStr, &hrv); err == nil &&
			hrv.HRVSummary.LastNightAvg != nil {
			rec, err := record(dayStr)
			if err != nil {
				return nil, err
			}
			rec.HRV = hrv.HRVSummary.LastNightAvg
		}

		var maxMet []struct {
			Generic struct {
				VO2MaxValue *float64 `json:"vo2MaxValue"`
			} `json:"generic"`
		}
		if err := c.get(ctx, "/metrics-service/metrics/maxmet/daily/"+dayStr+"/"+dayStr, &maxMet); err == nil &&
			len(maxMet) > 0 && maxMet[0].Generic.VO2MaxValue != nil {
			rec, err := record(dayStr)
			if err != nil {
				return nil, err
			}
			rec.VO2Max = maxMet[0].Generic.VO2MaxValue
		}
	}

	records := make([]health.AppRecord, 0, len(byDay))
	for day := health.Day(from); !day.After(health.Day(to)); day = day.AddDate(0, 0, 1) {
		if rec, ok := byDay[day.Format("2006-01-02")]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (c *GarminConnector) get(ctx context.Context, path string, out any) error {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
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

// addFloat accumulates into an optional float, allocating it on first use.
func addFloat(dst **float64, v float64) {
	if *dst == nil {
		*dst = new(float64)
	}
	**dst += v
}
