// Package scheduler runs the desk's recurring jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/switchboard/internal/config"
)

// Resetter zeroes every operator's daily handled counter.
type Resetter interface {
	ResetHandled() error
}

// Sweeper raises notifications for waiting inquiries past their SLA.
type Sweeper interface {
	SweepSLA() int
}

// Opts configures a Scheduler. Empty schedules disable the job.
type Opts struct {
	DailyReset string
	SLASweep   string
	Roster     Resetter
	Desk       Sweeper
	Logger     *slog.Logger
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron   *cron.Cron
	roster Resetter
	desk   Sweeper
	log    *slog.Logger
}

// New registers the jobs. It fails on an unparseable expression.
func New(opts Opts) (*Scheduler, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithParser(config.CronParser)),
		roster: opts.Roster,
		desk:   opts.Desk,
		log:    opts.Logger,
	}
	if opts.DailyReset != "" {
		if opts.Roster == nil {
			return nil, fmt.Errorf("scheduler: daily reset needs a roster")
		}
		if _, err := s.cron.AddFunc(opts.DailyReset, s.ResetDaily); err != nil {
			return nil, fmt.Errorf("scheduler: daily reset %q: %w", opts.DailyReset, err)
		}
	}
	if opts.SLASweep != "" {
		if opts.Desk == nil {
			return nil, fmt.Errorf("scheduler: sla sweep needs a desk")
		}
		if _, err := s.cron.AddFunc(opts.SLASweep, s.Sweep); err != nil {
			return nil, fmt.Errorf("scheduler: sla sweep %q: %w", opts.SLASweep, err)
		}
	}
	return s, nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start runs the jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResetDaily zeroes the handled counters.
func (s *Scheduler) ResetDaily() {
	if err := s.roster.ResetHandled(); err != nil {
		s.log.Error("daily reset failed", slog.Any("err", err))
		return
	}
	s.log.Info("daily handled counters reset")
}

// Sweep runs one SLA breach sweep.
func (s *Scheduler) Sweep() {
	n := s.desk.SweepSLA()
	s.log.Debug("sla sweep", slog.Int("breached", n))
}
