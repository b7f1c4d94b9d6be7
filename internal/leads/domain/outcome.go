package domain

import (
	"errors"
	"strings"
	"time"
)

// Outcome is the result an agent reports for a call.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeDNC
	OutcomeWrongNumber
	OutcomeRecall
	OutcomeNoAnswer
	OutcomeBusy
	OutcomeVoicemail
	// OutcomeOther covers any reported action without a dedicated rule.
	OutcomeOther

	outcomeCount
)

// ErrMissingOutcome is returned when no action was reported.
var ErrMissingOutcome = errors.New("outcome is required")

var outcomeCodes = [outcomeCount]string{
	OutcomeSuccess:     "SUCCESS",
	OutcomeDNC:         "DNC",
	OutcomeWrongNumber: "WRONG_NUMBER",
	OutcomeRecall:      "RECALL",
	OutcomeNoAnswer:    "NO_ANSWER",
	OutcomeBusy:        "BUSY",
	OutcomeVoicemail:   "VOICEMAIL",
	OutcomeOther:       "OTHER",
}

// Outcomes lists every outcome in declaration order.
func Outcomes() []Outcome {
	all := make([]Outcome, 0, outcomeCount)
	for o := Outcome(0); o < outcomeCount; o++ {
		all = append(all, o)
	}
	return all
}

func (o Outcome) String() string {
	if o < 0 || o >= outcomeCount {
		return "UNKNOWN"
	}
	return outcomeCodes[o]
}

// ParseOutcome maps a reported action code onto the closed outcome set.
// Codes without a dedicated rule map to OutcomeOther.
func ParseOutcome(code string) (Outcome, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return 0, ErrMissingOutcome
	}
	for o, c := range outcomeCodes {
		if c == normalized {
			return Outcome(o), nil
		}
	}
	return OutcomeOther, nil
}

type schedule int

const (
	// scheduleKeep leaves nextAvailableAt as stored.
	scheduleKeep schedule = iota
	// scheduleDelay sets nextAvailableAt to now plus the rule's delay.
	scheduleDelay
	// scheduleRecall uses the requested recall time, or now.
	scheduleRecall
)

type transition struct {
	status        Status
	schedule      schedule
	delay         time.Duration
	countsAttempt bool
	closes        bool
}

// transitions is indexed by Outcome; its length is fixed by outcomeCount so an
// added outcome without a rule shows up as a zero-status entry.
var transitions = [outcomeCount]transition{
	OutcomeSuccess:     {status: StatusClosed, schedule: scheduleKeep, closes: true},
	OutcomeDNC:         {status: StatusBlacklisted, schedule: scheduleKeep},
	OutcomeWrongNumber: {status: StatusBlacklisted, schedule: scheduleKeep},
	OutcomeRecall:      {status: StatusCallbackManual, schedule: scheduleRecall, countsAttempt: true},
	OutcomeNoAnswer:    {status: StatusCallbackAuto, schedule: scheduleDelay, delay: 2 * time.Hour, countsAttempt: true},
	OutcomeBusy:        {status: StatusCallbackAuto, schedule: scheduleDelay, delay: 5 * time.Minute, countsAttempt: true},
	OutcomeVoicemail:   {status: StatusCallbackAuto, schedule: scheduleDelay, delay: 24 * time.Hour, countsAttempt: true},
	OutcomeOther:       {status: StatusCallbackAuto, schedule: scheduleKeep, countsAttempt: true},
}

// Effect is the state change a disposition applies to a lead.
type Effect struct {
	Status Status
	// NextAvailableAt is only meaningful when SetNextAvailable is true.
	NextAvailableAt  time.Time
	SetNextAvailable bool
	IncrementRetry   bool
	// ClosedAt is set when the outcome closes the lead.
	ClosedAt *time.Time
}

// Resolve looks up the tentative effect of outcome at now. recallAt only
// matters for OutcomeRecall.
func Resolve(outcome Outcome, now time.Time, recallAt *time.Time) Effect {
	if outcome < 0 || outcome >= outcomeCount {
		outcome = OutcomeOther
	}
	rule := transitions[outcome]

	effect := Effect{
		Status:         rule.status,
		IncrementRetry: rule.countsAttempt,
	}

	switch rule.schedule {
	case scheduleDelay:
		effect.NextAvailableAt = now.Add(rule.delay)
		effect.SetNextAvailable = true
	case scheduleRecall:
		effect.NextAvailableAt = now
		if recallAt != nil && !recallAt.IsZero() {
			effect.NextAvailableAt = *recallAt
		}
		effect.SetNextAvailable = true
	}

	if rule.closes {
		closedAt := now
		effect.ClosedAt = &closedAt
	}

	return effect
}

// Settle applies the retry ceiling to a tentative status once the retry
// counter has been updated.
func (p Policy) Settle(tentative Status, retryCount int) Status {
	if p.Exhausted(retryCount) && !tentative.IsTerminal() {
		return StatusExhausted
	}
	return tentative
}
