package health

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunOptions controls a single sync run.
type RunOptions struct {
	// PastDays is the size of the fetch window. The window always ends at
	// yesterday; today's data is incomplete and never fetched.
	PastDays int

	// Apps optionally restricts the run to the named sources.
	Apps []string

	// Online enables the remote download before merging and the upload of
	// the refreshed artifacts afterwards. When false the remote store is
	// never touched.
	Online bool
}

// ConnectorOutcome records how a single connector fared during a run.
type ConnectorOutcome struct {
	Source  Source `json:"source"`
	Records int    `json:"records"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RunReport summarizes a completed sync run.
type RunReport struct {
	ID         string             `json:"id"`
	Started    time.Time          `json:"started"`
	Finished   time.Time          `json:"finished"`
	From       time.Time          `json:"from"`
	To         time.Time          `json:"to"`
	Connectors []ConnectorOutcome `json:"connectors"`
	TotalDays  int                `json:"total_days"`
}

// Service orchestrates fetching from connectors and persisting the merged
// day-indexed dataset.
type Service struct {
	registry *Registry
	local    LocalStore
	remote   RemoteStore // nil in offline mode
	exporter Exporter
	files    SyncedFiles
	log      *slog.Logger

	mu         sync.RWMutex
	lastReport *RunReport
}

// SyncedFiles names the artifacts kept in the remote store.
type SyncedFiles struct {
	Dataset string
	CSV     string
}

// NewService creates a Service. remote may be nil, in which case online runs
// fail fast instead of silently skipping the sync.
func NewService(registry *Registry, local LocalStore, remote RemoteStore, exporter Exporter, files SyncedFiles, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		registry: registry,
		local:    local,
		remote:   remote,
		exporter: exporter,
		files:    files,
		log:      log,
	}
}

// Run executes one fetch-merge-persist cycle and returns its report.
// Connector failures are logged and skipped; the run only fails on
// persistence or remote-sync errors.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	if opts.PastDays <= 0 {
		opts.PastDays = 7
	}

	report := &RunReport{
		ID:      uuid.NewString(),
		Started: time.Now().UTC(),
	}
	report.To = Day(time.Now().UTC().AddDate(0, 0, -1))
	report.From = report.To.AddDate(0, 0, -opts.PastDays)

	log := s.log.With("run_id", report.ID)
	log.Info("starting sync run",
		"from", DayKey(report.From), "to", DayKey(report.To), "online", opts.Online)

	if opts.Online {
		if s.remote == nil {
			return nil, fmt.Errorf("online run requested but no remote store configured")
		}
		found, err := s.remote.Download(ctx, s.files.Dataset)
		if err != nil {
			return nil, fmt.Errorf("download remote dataset: %w", err)
		}
		if !found {
			log.Info("no remote dataset found, starting from local data")
		}
	}

	old, err := s.local.Load()
	if err != nil {
		return nil, fmt.Errorf("load local dataset: %w", err)
	}
	log.Info("loaded stored dataset", "days", len(old))

	fetched := s.fetchAll(ctx, report, opts, log)

	assembled, err := Assemble(fetched)
	if err != nil {
		return nil, fmt.Errorf("assemble fetched records: %w", err)
	}

	merged, err := Merge(old, assembled)
	if err != nil {
		return nil, fmt.Errorf("merge datasets: %w", err)
	}
	report.TotalDays = len(merged)

	if err := s.local.Save(merged); err != nil {
		return nil, fmt.Errorf("save dataset: %w", err)
	}

	if s.exporter != nil {
		if err := s.exporter.Export(merged); err != nil {
			return nil, fmt.Errorf("export csv: %w", err)
		}
	}

	if opts.Online {
		if err := s.remote.Upload(ctx, s.files.Dataset); err != nil {
			return nil, fmt.Errorf("upload dataset: %w", err)
		}
		if s.files.CSV != "" {
			if err := s.remote.Upload(ctx, s.files.CSV); err != nil {
				return nil, fmt.Errorf("upload csv: %w", err)
			}
		}
		log.Info("uploaded dataset to remote store")
	}

	report.Finished = time.Now().UTC()
	log.Info("sync run complete", "days", report.TotalDays,
		"duration", report.Finished.Sub(report.Started).Round(time.Millisecond))

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	return report, nil
}

// fetchAll runs every selected connector sequentially. A failing connector
// contributes nothing to this run; its previously stored data is untouched.
func (s *Service) fetchAll(ctx context.Context, report *RunReport, opts RunOptions, log *slog.Logger) []AppRecord {
	var all []AppRecord

	apps := normalizeApps(opts.Apps)
	for _, name := range apps {
		if !slices.Contains(s.registry.SourceNames(), name) {
			log.Warn("unknown app requested, skipping", "app", name)
		}
	}

	for _, c := range s.registry.Connectors() {
		outcome := ConnectorOutcome{Source: c.Source()}

		if len(apps) > 0 && !containsSource(apps, c.Source()) {
			outcome.Skipped = true
			report.Connectors = append(report.Connectors, outcome)
			continue
		}

		log.Info("fetching", "source", c.Source())
		records, err := c.Fetch(ctx, report.From, report.To)
		if err != nil {
			log.Warn("connector fetch failed, skipping", "source", c.Source(), "error", err)
			outcome.Error = err.Error()
			report.Connectors = append(report.Connectors, outcome)
			continue
		}

		outcome.Records = len(records)
		report.Connectors = append(report.Connectors, outcome)
		all = append(all, records...)
	}

	return all
}

// LastReport returns the most recent run report, or nil before the first run.
func (s *Service) LastReport() *RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// Daily returns stored days within [from, to]; zero bounds are open.
func (s *Service) Daily(from, to time.Time) ([]DailyRecord, error) {
	all, err := s.local.Load()
	if err != nil {
		return nil, err
	}
	var result []DailyRecord
	for _, d := range all {
		if !from.IsZero() && d.Date.Before(from) {
			continue
		}
		if !to.IsZero() && d.Date.After(to) {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

// normalizeApps trims and lowercases the requested app names so the unknown
// warning and the fetch filter agree on spelling.
func normalizeApps(apps []string) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, strings.TrimSpace(strings.ToLower(a)))
	}
	return out
}

func containsSource(apps []string, s Source) bool {
	return slices.Contains(apps, string(s))
}
