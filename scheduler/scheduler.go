package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers scrape runs on a cron schedule
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
}

func NewScheduler(runner *Runner) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
	}
}

// Start registers the schedule and begins waiting for it
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if s.runner.IsRunning() {
			log.Println("Skipping scheduled run, previous run still in progress")
			return
		}
		if _, err := s.runner.RunOnce(context.Background(), "schedule"); err != nil {
			log.Printf("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Scrape runs scheduled: %s", schedule)
	return nil
}

// Stop stops the cron scheduler
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
