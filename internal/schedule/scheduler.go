// Package schedule wraps cron for the engine's periodic loops: the reminder
// tick and the geofence poll. The once-daily rollover is not a cron job; it
// keeps its own one-shot timer so the next-midnight math stays explicit.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps cron-based jobs.
type Scheduler struct {
	cron *cron.Cron
}

func New(loc *time.Location) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// Every registers a periodic job with the given period.
func (s *Scheduler) Every(period time.Duration, job func()) (cron.EntryID, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive")
	}
	seconds := int(period.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddFunc(spec, job)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
