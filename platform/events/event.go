// Package events is the in-process publish/subscribe mechanism modules use to
// react to each other without importing each other.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus. EventName is the subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps an event. Embed it in concrete event structs.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEventAt stamps with the clock the publishing engine used, so events
// line up with the timestamps written to the store.
func NewBaseEventAt(at time.Time) BaseEvent {
	return BaseEvent{Timestamp: at.UTC()}
}

// Handler reacts to one event. Errors are logged by the bus, never returned
// to the publisher.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus is what modules depend on; InMemoryBus is the only implementation.
type Bus interface {
	// Publish fans out asynchronously.
	Publish(ctx context.Context, event Event)
	Subscribe(eventName string, handler Handler)
}
