// Package notifier mirrors room events from the bus into the structured
// log so operators can follow membership and relay activity without
// querying the database.
package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/voxhire/interview-service/pkg/log"
	"github.com/voxhire/interview-service/pkg/pubsub"
)

// Handler consumes a single room event.
type Handler func(ctx context.Context, event *pubsub.Event)

// Notifier subscribes to every room's event stream and hands each event
// to the handler.
type Notifier struct {
	bus     pubsub.Subscriber
	handler Handler
}

// New creates a notifier over the given bus.
func New(bus pubsub.Subscriber, handler Handler) *Notifier {
	return &Notifier{bus: bus, handler: handler}
}

// Run subscribes and dispatches until the context is cancelled or the
// bus closes the stream. The subscription is released on return.
func (n *Notifier) Run(ctx context.Context) error {
	pattern := pubsub.RoomEventsPattern()
	events, err := n.bus.SubscribePattern(ctx, pattern)
	if err != nil {
		return err
	}
	defer n.bus.Unsubscribe(context.Background(), pattern)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			n.handler(ctx, event)
		}
	}
}

// LogHandler returns a Handler that writes each event to the logger.
func LogHandler(logger zerolog.Logger) Handler {
	return func(_ context.Context, event *pubsub.Event) {
		logger.Info().
			Str("event_type", event.Type).
			Str(log.FieldRoomID, event.RoomID).
			RawJSON("payload", event.Payload).
			Msg("room event")
	}
}
