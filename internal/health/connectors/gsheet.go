package connectors

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mordonez/healthdash/internal/health"
	"github.com/sony/gobreaker"
)

// GSheetConnector reads manually tracked lifts and bodyweight from a Google
// Sheet published as CSV. Publishing the sheet keeps the whole Sheets API
// and service-account machinery out of the picture.
type GSheetConnector struct {
	csvURL  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewGSheetConnector(client *http.Client, csvURL string) *GSheetConnector {
	return &GSheetConnector{
		csvURL:  csvURL,
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("gsheet"),
	}
}

func (c *GSheetConnector) Source() health.Source {
	return health.SourceGSheet
}

func (c *GSheetConnector) Fetch(ctx context.Context, from, to time.Time) ([]health.AppRecord, error) {
	if c.csvURL == "" {
		return nil, fmt.Errorf("gsheet csv url is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.csvURL, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rows, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse sheet csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateIdx, ok := col["date"]
	if !ok {
		// Sheets without a header keep dates in the first column.
		dateIdx = 0
	}

	fromDay, toDay := health.Day(from), health.Day(to)

	var records []health.AppRecord
	for _, row := range rows[1:] {
		if dateIdx >= len(row) {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[dateIdx]))
		if err != nil {
			continue
		}
		day := health.Day(date)
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}

		rec := &health.GSheetRecord{Source: health.SourceGSheet, Date: day}

		if idx, ok := col["bodyweight"]; ok && idx < len(row) {
			raw := strings.TrimSuffix(strings.TrimSpace(row[idx]), "kg")
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.BodyweightKg = &v
			}
		}
		if idx, ok := col["lift"]; ok && idx < len(row) {
			raw := strings.TrimSpace(row[idx])
			if raw != "" {
				lift := strings.EqualFold(raw, "TRUE")
				rec.Lift = &lift
			}
		}

		records = append(records, rec)
	}
	return records, nil
}
