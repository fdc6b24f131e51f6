package health

// Category groups metrics for the dashboard.
type Category string

const (
	CategoryRecovery  Category = "recovery"
	CategoryActivity  Category = "activity"
	CategoryNutrition Category = "nutrition"
)

// MetricMetadata describes how a metric should be presented and aggregated.
type MetricMetadata struct {
	PrettyName  string   `json:"pretty_name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Unit        string   `json:"unit,omitempty"`

	// SumWeekly metrics are summed over a week instead of averaged
	// (distances, training counts).
	SumWeekly bool `json:"sum_weekly"`

	// DisplayDelay is how many days to wait before a day's value is
	// considered settled (0 = same day, 1 = next day).
	DisplayDelay int `json:"display_delay"`
}

// metadata is keyed by source, then by metric name as reported by Metrics().
var metadata = map[Source]map[string]MetricMetadata{
	SourceOura: {
		"sleep_score":             {PrettyName: "Sleep Score", Category: CategoryRecovery, Description: "Overall sleep quality score from Oura Ring", Unit: "score"},
		"sleep_duration_hours":    {PrettyName: "Sleep Duration", Category: CategoryRecovery, Description: "Total time spent sleeping", Unit: "hours"},
		"readiness_score":         {PrettyName: "Readiness Score", Category: CategoryRecovery, Description: "Overall readiness score from Oura Ring", Unit: "score"},
		"activity_score":          {PrettyName: "Activity Score", Category: CategoryActivity, Description: "Overall activity score from Oura Ring", Unit: "score", DisplayDelay: 1},
		"steps":                   {PrettyName: "Steps", Category: CategoryActivity, Description: "Total daily steps", Unit: "steps", DisplayDelay: 1},
		"sleep_heart_rate":        {PrettyName: "Sleep Avg HR", Category: CategoryRecovery, Description: "Average heart rate during sleep", Unit: "bpm"},
		"sleep_lowest_heart_rate": {PrettyName: "Sleep Lowest HR", Category: CategoryRecovery, Description: "Lowest heart rate recorded during sleep", Unit: "bpm"},
		"sleep_hrv":               {PrettyName: "Sleep Avg HRV", Category: CategoryRecovery, Description: "Average heart rate variability during sleep", Unit: "ms"},
	},
	SourceGarmin: {
		"total_distance_km":    {PrettyName: "Running Distance", Category: CategoryActivity, Description: "Total activity distance from Garmin", Unit: "km", SumWeekly: true},
		"total_duration_hours": {PrettyName: "Running Duration", Category: CategoryActivity, Description: "Total activity duration from Garmin", Unit: "hours", SumWeekly: true},
		"steps":                {PrettyName: "Steps", Category: CategoryActivity, Description: "Total daily steps from Garmin", Unit: "steps", DisplayDelay: 1},
		"resting_heart_rate":   {PrettyName: "Resting HR", Category: CategoryRecovery, Description: "Resting heart rate measured by Garmin", Unit: "bpm", DisplayDelay: 1},
		"hrv":                  {PrettyName: "Sleep Avg HRV", Category: CategoryRecovery, Description: "Heart rate variability measured by Garmin", Unit: "ms"},
		"vo2_max":              {PrettyName: "VO2 Max", Category: CategoryActivity, Description: "Maximum oxygen consumption measured by Garmin", Unit: "ml/kg/min"},
	},
	SourceStrava: {
		"total_distance_km":    {PrettyName: "Running Distance", Category: CategoryActivity, Description: "Total running distance", Unit: "km", SumWeekly: true, DisplayDelay: 1},
		"total_duration_hours": {PrettyName: "Running Duration", Category: CategoryActivity, Description: "Total running time", Unit: "hours", SumWeekly: true, DisplayDelay: 1},
	},
	SourceCronometer: {
		"calories": {PrettyName: "Calories", Category: CategoryNutrition, Description: "Total daily caloric intake", Unit: "kcal", DisplayDelay: 1},
		"protein":  {PrettyName: "Protein", Category: CategoryNutrition, Description: "Total protein intake", Unit: "g", DisplayDelay: 1},
		"carbs":    {PrettyName: "Carbs", Category: CategoryNutrition, Description: "Total carbohydrate intake", Unit: "g", DisplayDelay: 1},
		"fat":      {PrettyName: "Fat", Category: CategoryNutrition, Description: "Total fat intake", Unit: "g", DisplayDelay: 1},
	},
	SourceGSheet: {
		"bodyweight_kg": {PrettyName: "Bodyweight", Category: CategoryNutrition, Description: "Daily bodyweight measurement", Unit: "kg"},
		"lift":          {PrettyName: "Lift", Category: CategoryActivity, Description: "Whether a lift was done on this day", SumWeekly: true, DisplayDelay: 1},
	},
}

// MetadataFor returns the metadata for a source's metric, if known.
func MetadataFor(s Source, metric string) (MetricMetadata, bool) {
	m, ok := metadata[s][metric]
	return m, ok
}

// MetadataCatalog returns the full metadata table keyed by source.
func MetadataCatalog() map[Source]map[string]MetricMetadata {
	return metadata
}
