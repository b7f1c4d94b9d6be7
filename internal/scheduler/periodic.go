package scheduler

import (
	"context"
	"fmt"
	"time"

	"power_dialer_backend/platform/config"
	"power_dialer_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues a stale lease sweep on a fixed interval. Several replicas
// may run it; task uniqueness keeps the queue to one sweep per interval.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
	entryID   string
}

func NewPeriodic(cfg config.SchedulerConfig, interval time.Duration, log *logger.Logger) (*Periodic, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive")
	}
	c, err := connFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	p := &Periodic{
		scheduler: asynq.NewScheduler(c.opt, &asynq.SchedulerOpts{Location: time.UTC, Logger: asynqLogger{log}}),
		log:       log,
	}

	task, err := NewReleaseStaleLeasesTask(ReleaseStaleLeasesPayload{Source: "periodic"})
	if err != nil {
		return nil, err
	}
	p.entryID, err = p.scheduler.Register(CronSpec(interval), task, sweepTaskOptions(c.queue, interval)...)
	if err != nil {
		return nil, fmt.Errorf("register stale lease sweep: %w", err)
	}
	return p, nil
}

// CronSpec renders interval in the "@every" form asynq schedules accept.
func CronSpec(interval time.Duration) string {
	return "@every " + interval.String()
}

func (p *Periodic) Run(ctx context.Context) error {
	if p == nil || p.scheduler == nil {
		return nil
	}
	if err := p.scheduler.Start(); err != nil {
		return fmt.Errorf("start periodic scheduler: %w", err)
	}
	p.log.Info("periodic stale lease sweep registered", "entryId", p.entryID)

	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
