package health

import (
	"time"
)

// Source identifies a third-party service we pull data from.
type Source string

const (
	SourceOura       Source = "oura"
	SourceGarmin     Source = "garmin"
	SourceStrava     Source = "strava"
	SourceCronometer Source = "cronometer"
	SourceGSheet     Source = "gsheet"
)

// Sources lists all known sources in canonical order. Merge, CSV export and
// the API all iterate sources in this order.
func Sources() []Source {
	return []Source{SourceOura, SourceGarmin, SourceStrava, SourceCronometer, SourceGSheet}
}

// MetricKind tells consumers how to render a metric value.
type MetricKind int

const (
	KindFloat MetricKind = iota
	KindInt
	KindBool
)

// Metric is one named measurement carried by a source record.
// Value is nil when the source did not report it for that day.
type Metric struct {
	Name  string
	Kind  MetricKind
	Value *float64
}

// AppRecord is one day of normalized data from a single source.
type AppRecord interface {
	RecordSource() Source
	RecordDate() time.Time
	// Metrics returns the record's measurements in declaration order.
	Metrics() []Metric
}

// OuraRecord is one day of data from the Oura Ring.
type OuraRecord struct {
	Source Source    `json:"source"`
	Date   time.Time `json:"date"`

	SleepScore           *int     `json:"sleep_score"`
	SleepDurationHours   *float64 `json:"sleep_duration_hours"`
	ReadinessScore       *int     `json:"readiness_score"`
	ActivityScore        *int     `json:"activity_score"`
	Steps                *int     `json:"steps"`
	SleepHeartRate       *float64 `json:"sleep_heart_rate"`
	SleepLowestHeartRate *int     `json:"sleep_lowest_heart_rate"`
	SleepHRV             *float64 `json:"sleep_hrv"`
}

func (r *OuraRecord) RecordSource() Source  { return SourceOura }
func (r *OuraRecord) RecordDate() time.Time { return r.Date }

func (r *OuraRecord) Metrics() []Metric {
	return []Metric{
		{Name: "sleep_score", Kind: KindInt, Value: intValue(r.SleepScore)},
		{Name: "sleep_duration_hours", Kind: KindFloat, Value: r.SleepDurationHours},
		{Name: "readiness_score", Kind: KindInt, Value: intValue(r.ReadinessScore)},
		{Name: "activity_score", Kind: KindInt, Value: intValue(r.ActivityScore)},
		{Name: "steps", Kind: KindInt, Value: intValue(r.Steps)},
		{Name: "sleep_heart_rate", Kind: KindFloat, Value: r.SleepHeartRate},
		{Name: "sleep_lowest_heart_rate", Kind: KindInt, Value: intValue(r.SleepLowestHeartRate)},
		{Name: "sleep_hrv", Kind: KindFloat, Value: r.SleepHRV},
	}
}

// GarminRecord is one day of data from Garmin Connect.
type GarminRecord struct {
	Source Source    `json:"source"`
	Date   time.Time `json:"date"`

	TotalDistanceKm    *float64 `json:"total_distance_km"`
	TotalDurationHours *float64 `json:"total_duration_hours"`
	Steps              *int     `json:"steps"`
	RestingHeartRate   *int     `json:"resting_heart_rate"`
	HRV                *int     `json:"hrv"`
	VO2Max             *float64 `json:"vo2_max"`
}

func (r *GarminRecord) RecordSource() Source  { return SourceGarmin }
func (r *GarminRecord) RecordDate() time.Time { return r.Date }

func (r *GarminRecord) Metrics() []Metric {
	return []Metric{
		{Name: "total_distance_km", Kind: KindFloat, Value: r.TotalDistanceKm},
		{Name: "total_duration_hours", Kind: KindFloat, Value: r.TotalDurationHours},
		{Name: "steps", Kind: KindInt, Value: intValue(r.Steps)},
		{Name: "resting_heart_rate", Kind: KindInt, Value: intValue(r.RestingHeartRate)},
		{Name: "hrv", Kind: KindInt, Value: intValue(r.HRV)},
		{Name: "vo2_max", Kind: KindFloat, Value: r.VO2Max},
	}
}

// StravaRecord is one day of running data from Strava.
type StravaRecord struct {
	Source Source    `json:"source"`
	Date   time.Time `json:"date"`

	TotalDistanceKm    *float64 `json:"total_distance_km"`
	TotalDurationHours *float64 `json:"total_duration_hours"`
}

func (r *StravaRecord) RecordSource() Source  { return SourceStrava }
func (r *StravaRecord) RecordDate() time.Time { return r.Date }

func (r *StravaRecord) Metrics() []Metric {
	return []Metric{
		{Name: "total_distance_km", Kind: KindFloat, Value: r.TotalDistanceKm},
		{Name: "total_duration_hours", Kind: KindFloat, Value: r.TotalDurationHours},
	}
}

// CronometerRecord is one day of nutrition data from Cronometer.
type CronometerRecord struct {
	Source Source    `json:"source"`
	Date   time.Time `json:"date"`

	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

func (r *CronometerRecord) RecordSource() Source  { return SourceCronometer }
func (r *CronometerRecord) RecordDate() time.Time { return r.Date }

func (r *CronometerRecord) Metrics() []Metric {
	return []Metric{
		{Name: "calories", Kind: KindFloat, Value: r.Calories},
		{Name: "protein", Kind: KindFloat, Value: r.Protein},
		{Name: "carbs", Kind: KindFloat, Value: r.Carbs},
		{Name: "fat", Kind: KindFloat, Value: r.Fat},
	}
}

// GSheetRecord is one day of manually tracked data from a published sheet.
type GSheetRecord struct {
	Source Source    `json:"source"`
	Date   time.Time `json:"date"`

	BodyweightKg *float64 `json:"bodyweight_kg"`
	Lift         *bool    `json:"lift"`
}

func (r *GSheetRecord) RecordSource() Source  { return SourceGSheet }
func (r *GSheetRecord) RecordDate() time.Time { return r.Date }

func (r *GSheetRecord) Metrics() []Metric {
	return []Metric{
		{Name: "bodyweight_kg", Kind: KindFloat, Value: r.BodyweightKg},
		{Name: "lift", Kind: KindBool, Value: boolValue(r.Lift)},
	}
}

// DailyRecord is the combined view of one calendar day across all sources.
// A nil source record means no data for that source on that day.
type DailyRecord struct {
	Date       time.Time         `json:"date"`
	Oura       *OuraRecord       `json:"oura,omitempty"`
	Garmin     *GarminRecord     `json:"garmin,omitempty"`
	Strava     *StravaRecord     `json:"strava,omitempty"`
	Cronometer *CronometerRecord `json:"cronometer,omitempty"`
	GSheet     *GSheetRecord     `json:"gsheet,omitempty"`
}

// BySource returns the record for a source, or nil.
func (d *DailyRecord) BySource(s Source) AppRecord {
	switch s {
	case SourceOura:
		if d.Oura != nil {
			return d.Oura
		}
	case SourceGarmin:
		if d.Garmin != nil {
			return d.Garmin
		}
	case SourceStrava:
		if d.Strava != nil {
			return d.Strava
		}
	case SourceCronometer:
		if d.Cronometer != nil {
			return d.Cronometer
		}
	case SourceGSheet:
		if d.GSheet != nil {
			return d.GSheet
		}
	}
	return nil
}

// Day normalizes a timestamp to midnight UTC so records from sources with
// differing time handling land in the same bucket.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats a date as YYYY-MM-DD for map keys and wire formats.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func intValue(p *int) *float64 {
	if p == nil {
		return nil
	}
	v := float64(*p)
	return &v
}

func boolValue(p *bool) *float64 {
	if p == nil {
		return nil
	}
	v := 0.0
	if *p {
		v = 1.0
	}
	return &v
}
