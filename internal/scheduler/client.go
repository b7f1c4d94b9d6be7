package scheduler

import (
	"context"
	"errors"
	"time"

	"power_dialer_backend/platform/config"

	"github.com/hibiken/asynq"
)

// Client enqueues on-demand sweeps.
type Client struct {
	client   *asynq.Client
	queue    string
	interval time.Duration
}

// NewClient connects to the queue. interval is the uniqueness window shared
// with the periodic entry so a manual sweep never stacks on a scheduled one.
func NewClient(cfg config.SchedulerConfig, interval time.Duration) (*Client, error) {
	c, err := connFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{client: asynq.NewClient(c.opt), queue: c.queue, interval: interval}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueReleaseStale queues a sweep now. A sweep already queued within the
// interval makes this a no-op.
func (c *Client) EnqueueReleaseStale(ctx context.Context, source string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewReleaseStaleLeasesTask(ReleaseStaleLeasesPayload{Source: source})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, sweepTaskOptions(c.queue, c.interval)...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}
