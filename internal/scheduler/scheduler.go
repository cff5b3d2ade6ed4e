// Package scheduler runs the server's background jobs: the nightly daily
// summary computation and periodic housekeeping of drafts and sessions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	summarytypes "stationdesk-server/internal/modules/summary/types"
)

const (
	housekeepingInterval = 5 * time.Minute
	summaryJobTimeout    = 5 * time.Minute
)

type SummaryComputer interface {
	ComputeAll(ctx context.Context, date string) ([]summarytypes.DailySummary, error)
	Yesterday() string
}

type DraftSweeper interface {
	Sweep() int
}

type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Jobs are the collaborators the scheduler drives. Nil members are skipped.
type Jobs struct {
	Summaries SummaryComputer
	Drafts    DraftSweeper
	Sessions  SessionPurger
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      Jobs
	summaryAt string
	logger    *slog.Logger
}

// New returns a scheduler that computes yesterday's summaries every day at
// summaryAt ("HH:MM" UTC). An empty summaryAt leaves only housekeeping.
func New(summaryAt string, jobs Jobs, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		jobs:      jobs,
		summaryAt: summaryAt,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start registers the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.summaryAt != "" && s.jobs.Summaries != nil {
		if _, err := s.scheduler.Every(1).Day().At(s.summaryAt).Do(s.runSummaries); err != nil {
			return err
		}
		s.logger.Info("daily summary job scheduled", "at_utc", s.summaryAt)
	}
	if s.jobs.Drafts != nil || s.jobs.Sessions != nil {
		if _, err := s.scheduler.Every(housekeepingInterval).Do(s.runHousekeeping); err != nil {
			return err
		}
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

func (s *Scheduler) runSummaries() {
	date := s.jobs.Summaries.Yesterday()
	s.logger.Info("running daily summary job", "date", date)

	ctx, cancel := context.WithTimeout(context.Background(), summaryJobTimeout)
	defer cancel()

	summaries, err := s.jobs.Summaries.ComputeAll(ctx, date)
	if err != nil {
		s.logger.Error("daily summary job failed", "date", date, "computed", len(summaries), "error", err)
		return
	}
	s.logger.Info("daily summary job completed", "date", date, "computed", len(summaries))
}

func (s *Scheduler) runHousekeeping() {
	if s.jobs.Drafts != nil {
		if n := s.jobs.Drafts.Sweep(); n > 0 {
			s.logger.Debug("expired drafts removed", "count", n)
		}
	}
	if s.jobs.Sessions != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := s.jobs.Sessions.PurgeExpired(ctx)
		if err != nil {
			s.logger.Error("session purge failed", "error", err)
			return
		}
		if n > 0 {
			s.logger.Debug("expired sessions removed", "count", n)
		}
	}
}
