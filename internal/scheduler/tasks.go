package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskReleaseStaleLeases = "leads.release_stale"

type ReleaseStaleLeasesPayload struct {
	// Source names what enqueued the sweep (periodic, startup, manual).
	Source string `json:"source"`
}

func NewReleaseStaleLeasesTask(payload ReleaseStaleLeasesPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReleaseStaleLeases, data), nil
}

func ParseReleaseStaleLeasesPayload(task *asynq.Task) (ReleaseStaleLeasesPayload, error) {
	var payload ReleaseStaleLeasesPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReleaseStaleLeasesPayload{}, err
	}
	return payload, nil
}

// sweepTaskOptions keeps at most one queued sweep per interval and never
// retries a failed one; the next tick covers it.
func sweepTaskOptions(queue string, interval time.Duration) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(0),
		asynq.Unique(interval),
		asynq.Timeout(interval),
	}
}
