package privilege

import (
	"context"
	"fmt"

	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/amirasaad/paddock/pkg/eventbus"
)

// RegisterHandlers creates privilege records for users registered elsewhere.
func (s *Service) RegisterHandlers(bus eventbus.Bus) {
	bus.Register(events.EventTypeUserRegistered, func(ctx context.Context, e events.Event) error {
		var evt events.UserRegistered
		switch v := e.(type) {
		case events.UserRegistered:
			evt = v
		case *events.UserRegistered:
			evt = *v
		default:
			return fmt.Errorf("unexpected event payload %T", e)
		}
		_, err := s.Register(ctx, evt.UserID, evt.Username)
		return err
	})
}
