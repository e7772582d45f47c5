package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, inventory.AggregateTypeInventoryItem, uuid.New()),
	}
}

type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to subscribed handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		crossed := newRecordingHandler()
		received := newRecordingHandler()
		bus.Subscribe(crossed, inventory.EventTypeLowStockCrossed)
		bus.Subscribe(received, inventory.EventTypeStockReceived)

		require.NoError(t, bus.Publish(ctx,
			newTestEvent(inventory.EventTypeLowStockCrossed),
			newTestEvent(inventory.EventTypeStockConsumed),
			newTestEvent(inventory.EventTypeLowStockCrossed),
		))

		assert.Equal(t, 2, crossed.count())
		assert.Equal(t, 0, received.count())
	})

	t.Run("uses the handler's own event types by default", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		h := newRecordingHandler(inventory.EventTypeStockRestored)
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(ctx, newTestEvent(inventory.EventTypeStockRestored)))
		assert.Equal(t, 1, h.count())
	})

	t.Run("wildcard handler receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		all := newRecordingHandler()
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(ctx,
			newTestEvent(inventory.EventTypeStockReceived),
			newTestEvent(inventory.EventTypeStockConsumed),
		))
		assert.Equal(t, 2, all.count())
	})

	t.Run("failing and panicking handlers do not stop delivery", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		failing := newRecordingHandler()
		failing.err = errors.New("notifier down")
		panicking := newRecordingHandler()
		panicking.panicWith = "nil map"
		healthy := newRecordingHandler()
		for _, h := range []*recordingHandler{failing, panicking, healthy} {
			bus.Subscribe(h, inventory.EventTypeLowStockCrossed)
		}

		err := bus.Publish(ctx, newTestEvent(inventory.EventTypeLowStockCrossed))
		require.NoError(t, err)
		assert.Equal(t, 1, healthy.count())
		assert.Equal(t, int64(2), bus.Failures())
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)
	h := newRecordingHandler(inventory.EventTypeStockConsumed)
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(ctx, newTestEvent(inventory.EventTypeStockConsumed)))
	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(ctx, newTestEvent(inventory.EventTypeStockConsumed)))

	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}
