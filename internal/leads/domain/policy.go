// Package domain provides core business rules for the lead lifecycle:
// statuses, call outcomes, the disposition transition table and calling windows.
package domain

import "time"

const (
	// DefaultLeaseDuration is how long a handed-out lead stays reserved for one agent.
	DefaultLeaseDuration = 60 * time.Second
	// DefaultRetryCeiling is the number of counted attempts a lead may accumulate;
	// one more exhausts it.
	DefaultRetryCeiling = 6

	// CallbackBatchSize bounds each callback tier query.
	CallbackBatchSize = 10
	// FreshBatchSize bounds the fresh-lead tier query.
	FreshBatchSize = 50
	// ReaperBatchSize bounds a single stale-lease sweep.
	ReaperBatchSize = 50
	// AbandonedCallbackDelay is the backoff applied when an expired lease is
	// returned to the callback queue.
	AbandonedCallbackDelay = 5 * time.Minute
)

// Policy carries the tunables the lease manager, the disposition machine and
// the reaper share. Build it with DefaultPolicy and apply configuration through
// WithOverrides only.
type Policy struct {
	LeaseDuration   time.Duration
	RetryCeiling    int
	ReaperBatchSize int
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		LeaseDuration:   DefaultLeaseDuration,
		RetryCeiling:    DefaultRetryCeiling,
		ReaperBatchSize: ReaperBatchSize,
	}
}

// WithOverrides replaces the values that are set. Zero or negative values keep
// the current setting; a zero retry ceiling is honoured since it is meaningful.
func (p Policy) WithOverrides(leaseDuration time.Duration, retryCeiling, reaperBatchSize int) Policy {
	if leaseDuration > 0 {
		p.LeaseDuration = leaseDuration
	}
	if retryCeiling >= 0 {
		p.RetryCeiling = retryCeiling
	}
	if reaperBatchSize > 0 {
		p.ReaperBatchSize = reaperBatchSize
	}
	return p
}

// Exhausted reports whether retryCount is past the ceiling.
func (p Policy) Exhausted(retryCount int) bool {
	return retryCount > p.RetryCeiling
}
