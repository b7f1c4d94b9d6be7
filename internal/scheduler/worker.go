package scheduler

import (
	"context"
	"fmt"
	"time"

	"power_dialer_backend/platform/config"
	"power_dialer_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Sweeper releases expired lead leases.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Worker consumes sweep tasks.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper Sweeper
	log     *logger.Logger
	now     func() time.Time
}

func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	c, err := connFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	// Sweeps are short and serialized by the redis lock; extra concurrency
	// only matters if more task types are added.
	concurrency := max(cfg.GetAsynqConcurrency(), 1)

	w := &Worker{
		server: asynq.NewServer(c.opt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{c.queue: 1},
			Logger:      asynqLogger{log},
		}),
		mux:     asynq.NewServeMux(),
		sweeper: sweeper,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
	w.mux.HandleFunc(TaskReleaseStaleLeases, w.handleReleaseStaleLeases)
	return w, nil
}

func (w *Worker) handleReleaseStaleLeases(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReleaseStaleLeasesPayload(task)
	if err != nil {
		return err
	}

	released, err := w.sweeper.Sweep(ctx, w.now())
	if err != nil {
		w.log.Warn("stale lease sweep failed", "source", payload.Source, "error", err)
		return err
	}
	if released > 0 {
		w.log.Info("stale lease sweep finished", "source", payload.Source, "released", released)
	}
	return nil
}

// Run serves until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct{ log *logger.Logger }

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug("asynq", "msg", fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info("asynq", "msg", fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn("asynq", "msg", fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error("asynq", "msg", fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error("asynq fatal", "msg", fmt.Sprint(args...)) }
