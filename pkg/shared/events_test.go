package shared

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case event := <-ch:
		t.Fatalf("unexpected event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeReceivesWriteAndDelete(t *testing.T) {
	c := createTestCoordinator(t, Config{})
	createNamespace(t, c, NamespaceConfig{Name: "ns"})
	ctx := context.Background()

	events := make(chan Event, 4)
	unsubscribe, err := c.Subscribe("ns", "observer", func(e Event) { events <- e })
	require.NoError(t, err)
	defer unsubscribe()

	_, err = c.Write(ctx, "ns", "k", "value", "writer", nil)
	require.NoError(t, err)

	event := waitEvent(t, events)
	assert.Equal(t, EventWrite, event.Type)
	assert.Equal(t, "ns", event.Namespace)
	assert.Equal(t, "k", event.Key)
	assert.Equal(t, "writer", event.AgentID)
	assert.Equal(t, "value", event.Value)
	assert.False(t, event.Timestamp.IsZero())

	_, err = c.Delete(ctx, "ns", "k", "writer")
	require.NoError(t, err)

	event = waitEvent(t, events)
	assert.Equal(t, EventDelete, event.Type)
	assert.Equal(t, "k", event.Key)
}

func TestReadsDoNotNotifySubscribers(t *testing.T) {
	c := createTestCoordinator(t, Config{})
	createNamespace(t, c, NamespaceConfig{Name: "ns"})
	ctx := context.Background()

	_, err := c.Write(ctx, "ns", "k", "value", "writer", nil)
	require.NoError(t, err)

	events := make(chan Event, 4)
	unsubscribe, err := c.Subscribe("ns", "observer", func(e Event) { events <- e })
	require.NoError(t, err)
	defer unsubscribe()

	_, err = c.Read(ctx, "ns", "k", "reader")
	require.NoError(t, err)

	assertNoEvent(t, events)
}

func TestSubscribeRequiresRead(t *testing.T) {
	c := createTestCoordinator(t, Config{})
	require.NoError(t, c.CreateNamespace(NamespaceConfig{
		Name:              "guarded",
		DefaultPermission: PermissionNone,
	}))

	_, err := c.Subscribe("guarded", "stranger", func(Event) {})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = c.Subscribe("ghost", "stranger", func(Event) {})
	assert.ErrorIs(t, err, ErrNamespaceNotFound)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	c := createTestCoordinator(t, Config{})
	createNamespace(t, c, NamespaceConfig{Name: "ns"})
	ctx := context.Background()

	events := make(chan Event, 4)
	unsubscribe, err := c.Subscribe("ns", "observer", func(e Event) { events <- e })
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()

	_, err = c.Write(ctx, "ns", "k", "value", "writer", nil)
	require.NoError(t, err)

	assertNoEvent(t, events)
}

func TestBroadcastFansOutToAllSubscribers(t *testing.T) {
	c := createTestCoordinator(t, Config{})
	createNamespace(t, c, NamespaceConfig{Name: "ns"})
	ctx := context.Background()

	first := make(chan Event, 1)
	second := make(chan Event, 1)
	_, err := c.Subscribe("ns", "one", func(e Event) { first <- e })
	require.NoError(t, err)
	_, err = c.Subscribe("ns", "two", func(e Event) { second <- e })
	require.NoError(t, err)

	require.NoError(t, c.Broadcast(ctx, "ns", "handoff ready", "announcer"))

	for _, ch := range []chan Event{first, second} {
		event := waitEvent(t, ch)
		assert.Equal(t, EventBroadcast, event.Type)
		assert.Equal(t, "handoff ready", event.Value)
		assert.Equal(t, "announcer", event.AgentID)
	}
}

func TestBroadcastRequiresReadNotWrite(t *testing.T) {
	c := createTestCoordinator(t, Config{})
	require.NoError(t, c.CreateNamespace(NamespaceConfig{
		Name:              "guarded",
		DefaultPermission: PermissionNone,
		AgentPermissions:  map[string]Permission{"reader": PermissionRead},
	}))
	ctx := context.Background()

	assert.NoError(t, c.Broadcast(ctx, "guarded", "msg", "reader"))
	assert.ErrorIs(t, c.Broadcast(ctx, "guarded", "msg", "stranger"), ErrPermissionDenied)
	assert.ErrorIs(t, c.Broadcast(ctx, "ghost", "msg", "reader"), ErrNamespaceNotFound)
}

func TestPanickingSubscriberDoesNotBreakFanOut(t *testing.T) {
	c := createTestCoordinator(t, Config{})
	createNamespace(t, c, NamespaceConfig{Name: "ns"})
	ctx := context.Background()

	_, err := c.Subscribe("ns", "bad", func(Event) { panic("subscriber bug") })
	require.NoError(t, err)

	healthy := make(chan Event, 1)
	_, err = c.Subscribe("ns", "good", func(e Event) { healthy <- e })
	require.NoError(t, err)

	require.NoError(t, c.Broadcast(ctx, "ns", "still delivered", "announcer"))

	event := waitEvent(t, healthy)
	assert.Equal(t, "still delivered", event.Value)
}

func TestCoordinatorWideHandlers(t *testing.T) {
	c := createTestCoordinator(t, Config{})
	createNamespace(t, c, NamespaceConfig{Name: "a"})
	createNamespace(t, c, NamespaceConfig{Name: "b"})
	ctx := context.Background()

	writes := make(chan Event, 4)
	require.NoError(t, c.On(EventWrite, func(e Event) { writes <- e }))
	assert.Error(t, c.On(EventType("exploded"), func(Event) {}))

	_, err := c.Write(ctx, "a", "k", 1, "agent", nil)
	require.NoError(t, err)
	_, err = c.Write(ctx, "b", "k", 2, "agent", nil)
	require.NoError(t, err)

	assert.Equal(t, "a", waitEvent(t, writes).Namespace)
	assert.Equal(t, "b", waitEvent(t, writes).Namespace)

	c.Off(EventWrite)
	_, err = c.Write(ctx, "a", "k2", 3, "agent", nil)
	require.NoError(t, err)
	assertNoEvent(t, writes)
}

func TestNamespaceLifecycleEvents(t *testing.T) {
	c := createTestCoordinator(t, Config{})

	created := make(chan Event, 1)
	deleted := make(chan Event, 1)
	require.NoError(t, c.On(EventNamespaceCreated, func(e Event) { created <- e }))
	require.NoError(t, c.On(EventNamespaceDeleted, func(e Event) { deleted <- e }))

	createNamespace(t, c, NamespaceConfig{Name: "ns"})
	assert.Equal(t, "ns", waitEvent(t, created).Namespace)

	require.NoError(t, c.DeleteNamespace("ns", "agent"))
	event := waitEvent(t, deleted)
	assert.Equal(t, "ns", event.Namespace)
	assert.Equal(t, "agent", event.AgentID)
}

func TestEventBusDropsWhenFull(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	bus := newEventBus(1, logger)

	block := make(chan struct{})
	release := make(chan struct{})
	blocked := []EventHandler{func(Event) {
		close(block)
		<-release
	}}

	// First delivery occupies the dispatcher, second fills the buffer.
	require.True(t, bus.publish(Event{Type: EventWrite}, blocked))
	<-block
	noop := []EventHandler{func(Event) {}}
	require.True(t, bus.publish(Event{Type: EventWrite}, noop))

	assert.False(t, bus.publish(Event{Type: EventWrite}, noop))

	close(release)
	bus.close()

	// Publishing after close reports a drop rather than panicking.
	assert.False(t, bus.publish(Event{Type: EventWrite}, noop))
}

func TestEventBusSkipsEmptyHandlerSets(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	bus := newEventBus(0, logger)
	defer bus.close()

	// No handlers means nothing to deliver; never counts as a drop.
	assert.True(t, bus.publish(Event{Type: EventWrite}, nil))
}
