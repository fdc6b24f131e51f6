package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mordonez/healthdash/internal/health"
	"github.com/mordonez/healthdash/internal/observability"
)

// Scheduler periodically runs the sync flow while the dashboard backend is
// serving. Jobs run in singleton mode; a slow fetch never overlaps the next.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *health.Service
	opts      health.RunOptions
	interval  time.Duration
	log       *slog.Logger
}

// New creates a Scheduler that runs the service with the given options every
// interval.
func New(service *health.Service, opts health.RunOptions, interval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		opts:      opts,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic sync job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 360
	}

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		s.log.Info("running scheduled sync")
		report, err := s.service.Run(ctx, s.opts)
		observability.RecordRun(report, err)
		if err != nil {
			s.log.Error("scheduled sync failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
