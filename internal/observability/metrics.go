package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mordonez/healthdash/internal/health"
)

var (
	syncRunsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthdash",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Completed sync runs by outcome.",
	}, []string{"outcome"})
	connectorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthdash",
		Subsystem: "sync",
		Name:      "connector_failures_total",
		Help:      "Connector fetches that failed and were skipped.",
	}, []string{"source"})
	recordsFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthdash",
		Subsystem: "sync",
		Name:      "records_fetched_total",
		Help:      "Per-day records fetched from connectors.",
	}, []string{"source"})
	lastSuccessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthdash",
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful sync run.",
	})
)

func init() {
	prometheus.MustRegister(syncRunsCounter, connectorFailures, recordsFetched, lastSuccessGauge)
}

// RecordRun updates the sync metrics from a finished run's report.
// A nil report means the run failed before producing one.
func RecordRun(report *health.RunReport, err error) {
	if err != nil {
		syncRunsCounter.WithLabelValues("failure").Inc()
		return
	}
	syncRunsCounter.WithLabelValues("success").Inc()

	if report == nil {
		return
	}
	if !report.Finished.IsZero() {
		lastSuccessGauge.Set(float64(report.Finished.Unix()))
	} else {
		lastSuccessGauge.Set(float64(time.Now().Unix()))
	}
	for _, c := range report.Connectors {
		if c.Error != "" {
			connectorFailures.WithLabelValues(string(c.Source)).Inc()
			continue
		}
		if c.Records > 0 {
			recordsFetched.WithLabelValues(string(c.Source)).Add(float64(c.Records))
		}
	}
}
