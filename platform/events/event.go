// Package events is the in-process event bus modules use to react to each
// other's changes without importing one another.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a named fact published on the bus.
type Event interface {
	// EventName is the subscription key, e.g. "maps.map.deleted".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by every domain event.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// EventID identifies one publication in logs.
func (e BaseEvent) EventID() uuid.UUID {
	return e.ID
}

// NewBaseEvent stamps a fresh ID and the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is the side of the bus services depend on.
type Publisher interface {
	// Publish runs handlers in the background.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers before returning and reports their errors.
	PublishSync(ctx context.Context, event Event) error
}

// Bus publishes events and registers handlers by event name.
type Bus interface {
	Publisher
	Subscribe(eventName string, handler Handler)
}

func eventID(event Event) string {
	if e, ok := event.(interface{ EventID() uuid.UUID }); ok && e.EventID() != uuid.Nil {
		return e.EventID().String()
	}
	return ""
}
