package health

import (
	"sort"
	"time"
)

// WeeklyPoint is one week's aggregate for a metric.
type WeeklyPoint struct {
	WeekStart time.Time `json:"week_start"` // Monday, midnight UTC
	Value     float64   `json:"value"`
	Days      int       `json:"days"` // days that actually reported a value
}

// WeeklySeries is the weekly aggregation of a single source metric.
type WeeklySeries struct {
	Source   Source         `json:"source"`
	Metric   string         `json:"metric"`
	Metadata MetricMetadata `json:"metadata"`
	Points   []WeeklyPoint  `json:"points"`
}

// WeekStart returns the Monday of t's week, midnight UTC.
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

// Weekly aggregates daily records into per-metric weekly series.
// Sum-weekly metrics are summed; everything else is averaged over the days
// that reported. Each metric hides its trailing display-delay days relative
// to now, so half-settled values never skew the newest week.
func Weekly(records []DailyRecord, weeks int, now time.Time) []WeeklySeries {
	if weeks <= 0 || len(records) == 0 {
		return nil
	}

	latestWeek := WeekStart(now)
	earliestWeek := latestWeek.AddDate(0, 0, -7*(weeks-1))

	type seriesKey struct {
		source Source
		metric string
	}
	buckets := make(map[seriesKey]map[time.Time][]float64)

	for _, daily := range records {
		week := WeekStart(daily.Date)
		if week.Before(earliestWeek) || week.After(latestWeek) {
			continue
		}

		for _, src := range Sources() {
			rec := daily.BySource(src)
			if rec == nil {
				continue
			}
			for _, m := range rec.Metrics() {
				if m.Value == nil {
					continue
				}
				meta, ok := MetadataFor(src, m.Name)
				if !ok {
					continue
				}
				cutoff := Day(now).AddDate(0, 0, -meta.DisplayDelay)
				if daily.Date.After(cutoff) {
					continue
				}

				key := seriesKey{source: src, metric: m.Name}
				if buckets[key] == nil {
					buckets[key] = make(map[time.Time][]float64)
				}
				buckets[key][week] = append(buckets[key][week], *m.Value)
			}
		}
	}

	var result []WeeklySeries
	for key, weeksMap := range buckets {
		meta, _ := MetadataFor(key.source, key.metric)
		series := WeeklySeries{Source: key.source, Metric: key.metric, Metadata: meta}

		for week, values := range weeksMap {
			var total float64
			for _, v := range values {
				total += v
			}
			point := WeeklyPoint{WeekStart: week, Value: total, Days: len(values)}
			if !meta.SumWeekly {
				point.Value = total / float64(len(values))
			}
			series.Points = append(series.Points, point)
		}

		sort.Slice(series.Points, func(i, j int) bool {
			return series.Points[i].WeekStart.Before(series.Points[j].WeekStart)
		})
		result = append(result, series)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Source != result[j].Source {
			return result[i].Source < result[j].Source
		}
		return result[i].Metric < result[j].Metric
	})
	return result
}
