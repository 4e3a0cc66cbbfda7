package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler repeatedly fires the runner until the context is cancelled.
type Scheduler interface {
	Run(ctx context.Context, runner *Runner)
}

// IntervalScheduler ticks on a fixed interval, firing once immediately so
// a fresh process picks up backlog without waiting a full period.
type IntervalScheduler struct {
	Interval time.Duration
}

func (s *IntervalScheduler) Run(ctx context.Context, runner *Runner) {
	interval := s.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	log.Printf("pipeline: polling every %s", interval)

	if err := runner.Tick(ctx); err != nil {
		log.Printf("pipeline: tick: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := runner.Tick(ctx); err != nil {
				log.Printf("pipeline: tick: %v", err)
			}
		}
	}
}

// CronScheduler fires on a cron expression instead of a fixed interval.
// Useful when investigation windows must align with quiet hours.
type CronScheduler struct {
	Spec string
}

func (s *CronScheduler) Run(ctx context.Context, runner *Runner) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(s.Spec, func() {
		if err := runner.Tick(ctx); err != nil {
			log.Printf("pipeline: tick: %v", err)
		}
	})
	if err != nil {
		log.Printf("pipeline: invalid cron spec %q: %v", s.Spec, err)
		return
	}
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
}
