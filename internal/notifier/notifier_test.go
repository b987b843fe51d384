package notifier

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/interview-service/pkg/pubsub"
)

// fakeBus is a channel-backed Subscriber.
type fakeBus struct {
	events       chan *pubsub.Event
	pattern      string
	unsubscribed []string
}

func (b *fakeBus) Subscribe(_ context.Context, _ string) (<-chan *pubsub.Event, error) {
	return b.events, nil
}

func (b *fakeBus) SubscribePattern(_ context.Context, pattern string) (<-chan *pubsub.Event, error) {
	b.pattern = pattern
	return b.events, nil
}

func (b *fakeBus) Unsubscribe(_ context.Context, channel string) error {
	b.unsubscribed = append(b.unsubscribed, channel)
	return nil
}

func TestNotifierDeliversEvents(t *testing.T) {
	bus := &fakeBus{events: make(chan *pubsub.Event, 2)}

	received := make(chan *pubsub.Event, 2)
	n := New(bus, func(_ context.Context, e *pubsub.Event) { received <- e })

	evt, err := pubsub.NewEvent(pubsub.EventMemberJoined, "room-1", pubsub.MembershipPayload{RoomID: "room-1", UserID: "u1"})
	require.NoError(t, err)
	bus.events <- evt
	close(bus.events)

	done := make(chan error, 1)
	go func() { done <- n.Run(context.Background()) }()

	select {
	case got := <-received:
		assert.Equal(t, pubsub.EventMemberJoined, got.Type)
		assert.Equal(t, "room-1", got.RoomID)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}

	require.NoError(t, <-done)
	assert.Equal(t, pubsub.RoomEventsPattern(), bus.pattern)
	assert.Equal(t, []string{pubsub.RoomEventsPattern()}, bus.unsubscribed)
}

func TestNotifierStopsOnCancel(t *testing.T) {
	bus := &fakeBus{events: make(chan *pubsub.Event)}
	n := New(bus, func(context.Context, *pubsub.Event) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop on cancel")
	}
}

func TestLogHandlerWritesEventFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	evt, err := pubsub.NewEvent(pubsub.EventMessageCreated, "room-9", pubsub.MessagePayload{MessageID: "msg-1", RoomID: "room-9", Text: "hi"})
	require.NoError(t, err)

	LogHandler(logger)(context.Background(), evt)

	out := buf.String()
	assert.Contains(t, out, pubsub.EventMessageCreated)
	assert.Contains(t, out, "room-9")
	assert.Contains(t, out, "msg-1")
}
