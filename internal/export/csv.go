// Package export flattens the day-indexed dataset into a CSV the dashboard
// and spreadsheet tooling can consume directly.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mordonez/healthdash/internal/health"
)

// CSVExporter writes one row per day with `source__field` columns, sources
// and fields in canonical order. Absent values are empty cells.
type CSVExporter struct {
	path string
}

func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

// Path returns the CSV file location.
func (e *CSVExporter) Path() string {
	return e.path
}

// Export writes the whole dataset, replacing any previous file.
func (e *CSVExporter) Export(records []health.DailyRecord) error {
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", e.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := Header()
	if err := w.Write(header); err != nil {
		return err
	}

	for _, daily := range records {
		if err := w.Write(row(daily, header)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// Header returns the column names: date first, then every source metric.
func Header() []string {
	header := []string{"date"}
	for _, src := range health.Sources() {
		for _, m := range emptyRecord(src).Metrics() {
			header = append(header, fmt.Sprintf("%s__%s", src, m.Name))
		}
	}
	return header
}

func row(daily health.DailyRecord, header []string) []string {
	cells := make(map[string]string, len(header))
	cells["date"] = health.DayKey(daily.Date)

	for _, src := range health.Sources() {
		rec := daily.BySource(src)
		if rec == nil {
			continue
		}
		for _, m := range rec.Metrics() {
			if m.Value == nil {
				continue
			}
			cells[fmt.Sprintf("%s__%s", src, m.Name)] = formatValue(m)
		}
	}

	out := make([]string, len(header))
	for i, name := range header {
		out[i] = cells[name]
	}
	return out
}

func formatValue(m health.Metric) string {
	switch m.Kind {
	case health.KindInt:
		return strconv.Itoa(int(*m.Value))
	case health.KindBool:
		return strconv.FormatBool(*m.Value != 0)
	default:
		return strconv.FormatFloat(*m.Value, 'f', -1, 64)
	}
}

// emptyRecord returns a zero record for a source, used to enumerate its
// metric names without data.
func emptyRecord(src health.Source) health.AppRecord {
	switch src {
	case health.SourceOura:
		return &health.OuraRecord{}
	case health.SourceGarmin:
		return &health.GarminRecord{}
	case health.SourceStrava:
		return &health.StravaRecord{}
	case health.SourceCronometer:
		return &health.CronometerRecord{}
	case health.SourceGSheet:
		return &health.GSheetRecord{}
	}
	return &health.OuraRecord{}
}
