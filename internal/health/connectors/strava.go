package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mordonez/healthdash/internal/health"
	"github.com/sony/gobreaker"
)

// StravaConnector pulls run activities from the Strava API. Access tokens
// are cached in a JSON file next to the dataset and refreshed through the
// OAuth refresh flow when expired.
type StravaConnector struct {
	clientID      string
	clientSecret  string
	tokenFilePath string
	baseURL       string
	tokenURL      string
	httpCfg       HTTPClientConfig
	circuit       *gobreaker.CircuitBreaker
}

func NewStravaConnector(client *http.Client, clientID, clientSecret, tokenFilePath string) *StravaConnector {
	return &StravaConnector{
		clientID:      clientID,
		clientSecret:  clientSecret,
		tokenFilePath: tokenFilePath,
		baseURL:       "https://www.strava.com/api/v3",
		tokenURL:      "https://www.strava.com/oauth/token",
		httpCfg:       defaultHTTPConfig(client),
		circuit:       newBreaker("strava"),
	}
}

func (c *StravaConnector) Source() health.Source {
	return health.SourceStrava
}

type stravaToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	TokenType    string `json:"token_type"`
}

func (t stravaToken) expired() bool {
	return t.ExpiresAt == 0 || time.Now().After(time.Unix(t.ExpiresAt, 0))
}

type stravaActivity struct {
	Type       string  `json:"type"`
	StartDate  string  `json:"start_date_local"` // RFC3339
	Distance   float64 `json:"distance"`         // meters
	MovingTime int     `json:"moving_time"`      // seconds
}

func (c *StravaConnector) Fetch(ctx context.Context, from, to time.Time) ([]health.AppRecord, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, fmt.Errorf("strava client credentials are not configured")
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	// The `before` bound is exclusive, so push it past the end of day.
	values := url.Values{}
	values.Set("after", strconv.FormatInt(health.Day(from).Unix(), 10))
	values.Set("before", strconv.FormatInt(health.Day(to).AddDate(0, 0, 1).Unix(), 10))
	values.Set("per_page", "200")

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+"/athlete/activities?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var activities []stravaActivity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, err
	}

	byDay := make(map[string]*health.StravaRecord)
	for _, a := range activities {
		if a.Type != "Run" || a.Distance == 0 || a.MovingTime == 0 {
			continue
		}
		start, err := time.Parse(time.RFC3339, a.StartDate)
		if err != nil {
			continue
		}

		key := start.Format("2006-01-02")
		rec, ok := byDay[key]
		if !ok {
			rec = &health.StravaRecord{Source: health.SourceStrava, Date: health.Day(start)}
			byDay[key] = rec
		}
		addFloat(&rec.TotalDistanceKm, a.Distance/1000)
		addFloat(&rec.TotalDurationHours, float64(a.MovingTime)/3600)
	}

	records := make([]health.AppRecord, 0, len(byDay))
	for day := health.Day(from); !day.After(health.Day(to)); day = day.AddDate(0, 0, 1) {
		if rec, ok := byDay[day.Format("2006-01-02")]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ensureToken loads the cached token and refreshes it when expired.
func (c *StravaConnector) ensureToken(ctx context.Context) (stravaToken, error) {
	token := c.loadToken()
	if !token.expired() {
		return token, nil
	}
	if token.RefreshToken == "" {
		return stravaToken{}, fmt.Errorf("no refresh token cached at %s", c.tokenFilePath)
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return stravaToken{}, err
	}
	defer resp.Body.Close()

	var refreshed stravaToken
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return stravaToken{}, err
	}
	refreshed.TokenType = "Bearer"

	if err := c.saveToken(refreshed); err != nil {
		return stravaToken{}, fmt.Errorf("cache refreshed token: %w", err)
	}
	return refreshed, nil
}

func (c *StravaConnector) loadToken() stravaToken {
	var token stravaToken
	data, err := os.ReadFile(c.tokenFilePath)
	if err != nil {
		return token
	}
	// A corrupt cache behaves like a missing one.
	_ = json.Unmarshal(data, &token)
	return token
}

func (c *StravaConnector) saveToken(token stravaToken) error {
	data, err := json.MarshalIndent(token, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.tokenFilePath, data, 0o600)
}
