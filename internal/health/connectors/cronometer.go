package connectors

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mordonez/healthdash/internal/health"
	"github.com/sony/gobreaker"
)

// Cronometer has no public API. The web client is GWT-RPC: a logged-in
// session nonce is exchanged for a short-lived authorization token, which
// unlocks the CSV export endpoint.
const cronometerAuthPayload = "7|0|8|https://cronometer.com/cronometer/|4BF489C39F5BC40ED3964A8458F88DB5|com.cronometer.shared.rpc.CronometerService|generateAuthorizationToken|java.lang.String/2004016611|I|com.cronometer.shared.user.AuthScope/2065601159|%s|1|2|3|4|4|5|6|6|7|8|2942452|3600|7|2|"

// CronometerConnector pulls daily nutrition summaries from Cronometer's
// CSV export.
type CronometerConnector struct {
	sessionNonce string
	baseURL      string
	httpCfg      HTTPClientConfig
	circuit      *gobreaker.CircuitBreaker

	fetchNonce string
}

func NewCronometerConnector(client *http.Client, sessionNonce string) *CronometerConnector {
	return &CronometerConnector{
		sessionNonce: sessionNonce,
		baseURL:      "https://cronometer.com",
		httpCfg:      defaultHTTPConfig(client),
		circuit:      newBreaker("cronometer"),
	}
}

func (c *CronometerConnector) Source() health.Source {
	return health.SourceCronometer
}

func (c *CronometerConnector) Fetch(ctx context.Context, from, to time.Time) ([]health.AppRecord, error) {
	if c.sessionNonce == "" {
		return nil, fmt.Errorf("cronometer session nonce is not configured")
	}

	if c.fetchNonce == "" {
		if err := c.authenticate(ctx); err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}

	exportURL := fmt.Sprintf("%s/export?nonce=%s&generate=dailySummary&start=%s&end=%s",
		c.baseURL, c.fetchNonce, from.Format("2006-01-02"), to.Format("2006-01-02"))

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, exportURL, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return parseDailySummary(resp.Body)
}

// authenticate exchanges the session nonce for a fetch nonce via the GWT-RPC
// endpoint. The token is the first quoted string of the //OK response.
func (c *CronometerConnector) authenticate(ctx context.Context) error {
	buildRequest := func() (*http.Request, error) {
		body := fmt.Sprintf(cronometerAuthPayload, c.sessionNonce)
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/cronometer/app", strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "text/x-gwt-rpc; charset=UTF-8")
		req.Header.Set("X-Gwt-Module-Base", "https://cronometer.com/cronometer/")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	parts := strings.Split(string(raw), `"`)
	if len(parts) < 2 || parts[1] == "" {
		return fmt.Errorf("unexpected gwt-rpc response %q", truncate(string(raw), 80))
	}
	c.fetchNonce = parts[1]
	return nil
}

func parseDailySummary(r io.Reader) ([]health.AppRecord, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse export csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	dateIdx, ok := col["Date"]
	if !ok {
		return nil, fmt.Errorf("export csv has no Date column")
	}

	var records []health.AppRecord
	for _, row := range rows[1:] {
		date, err := time.Parse("2006-01-02", row[dateIdx])
		if err != nil {
			continue
		}
		rec := &health.CronometerRecord{
			Source:   health.SourceCronometer,
			Date:     health.Day(date),
			Calories: cellFloat(row, col, "Energy (kcal)"),
			Protein:  cellFloat(row, col, "Protein (g)"),
			Carbs:    cellFloat(row, col, "Carbs (g)"),
			Fat:      cellFloat(row, col, "Fat (g)"),
		}
		records = append(records, rec)
	}
	return records, nil
}

func cellFloat(row []string, col map[string]int, name string) *float64 {
	idx, ok := col[name]
	if !ok || idx >= len(row) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return nil
	}
	return &v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
