// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"mapshare_backend/platform/events"
	"mapshare_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Maps Domain Events
// =============================================================================

// MapViewed is published when a shared map was opened by a granted viewer.
type MapViewed struct {
	BaseEvent
	MapID uuid.UUID `json:"mapId"`
}

func (e MapViewed) EventName() string { return "maps.map.viewed" }

// MapDeleted is published after a map row was removed.
type MapDeleted struct {
	BaseEvent
	MapID   uuid.UUID `json:"mapId"`
	OwnerID uuid.UUID `json:"ownerId"`
}

func (e MapDeleted) EventName() string { return "maps.map.deleted" }
