package eventbus

import (
	"context"

	"github.com/amirasaad/paddock/pkg/domain/events"
)

// HandlerFunc processes one event. Returned errors are logged by the bus.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Bus defines the contract for publishing and subscribing to domain events.
type Bus interface {
	Register(eventType events.EventType, handler HandlerFunc)
	Emit(ctx context.Context, event events.Event) error
}
