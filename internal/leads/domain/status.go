package domain

import "strings"

// Status is the lifecycle state of a lead.
type Status string

const (
	StatusNew            Status = "NEW"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusCallbackManual Status = "CALLBACK_MANUAL"
	StatusCallbackAuto   Status = "CALLBACK_AUTO"
	StatusClosed         Status = "CLOSED"
	StatusBlacklisted    Status = "BLACKLISTED"
	StatusExhausted      Status = "EXHAUSTED"
)

// QueuedStatuses are the statuses a lead can be handed out from.
var QueuedStatuses = []Status{StatusNew, StatusCallbackManual, StatusCallbackAuto}

// IsTerminal is true for statuses with no outbound transition.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusClosed, StatusBlacklisted, StatusExhausted:
		return true
	default:
		return false
	}
}

// IsQueued is true for statuses that wait in the queue for an agent.
func (s Status) IsQueued() bool {
	switch s {
	case StatusNew, StatusCallbackManual, StatusCallbackAuto:
		return true
	default:
		return false
	}
}

// ParseStatus reads a stored status value.
func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	switch s {
	case StatusNew, StatusInProgress, StatusCallbackManual, StatusCallbackAuto,
		StatusClosed, StatusBlacklisted, StatusExhausted:
		return s, true
	default:
		return "", false
	}
}
