package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/cache"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	return m.Called(ctx, alert).Error(0)
}

func lowStockEvent(t *testing.T, name string, quantity, reorder int64) *inventory.LowStockCrossedEvent {
	t.Helper()
	key, err := inventory.NewItemKey(inventory.DepartmentPharmacy, name)
	require.NoError(t, err)
	item, err := inventory.NewInventoryItem(key, reorder)
	require.NoError(t, err)
	item.QuantityAvailable = quantity
	return inventory.NewLowStockCrossedEvent(item)
}

func TestLowStockHandler_EventTypes(t *testing.T) {
	h := NewLowStockHandler(zap.NewNop())
	assert.ElementsMatch(t,
		[]string{inventory.EventTypeLowStockCrossed, inventory.EventTypeStockReceived},
		h.EventTypes(),
	)
}

func TestLowStockHandler_Alerts(t *testing.T) {
	ctx := context.Background()

	t.Run("sends out of stock alert", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("SendAlert", ctx, mock.MatchedBy(func(a StockAlert) bool {
			return a.AlertType == "out_of_stock" && a.ItemName == "Heparin 5000" && a.ReorderLevel == 10
		})).Return(nil).Once()

		h := NewLowStockHandler(zap.NewNop()).WithNotifier(notifier)
		require.NoError(t, h.Handle(ctx, lowStockEvent(t, "Heparin 5000", 0, 10)))
		notifier.AssertExpectations(t)
	})

	t.Run("suppresses repeats while the alert is active", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		notifier := new(mockNotifier)
		notifier.On("SendAlert", ctx, mock.AnythingOfType("StockAlert")).Return(nil).Once()

		h := NewLowStockHandler(zap.NewNop()).WithNotifier(notifier).WithDeduplication(store, 0)
		require.NoError(t, h.Handle(ctx, lowStockEvent(t, "Atropine", 3, 10)))
		require.NoError(t, h.Handle(ctx, lowStockEvent(t, "Atropine", 2, 10)))
		notifier.AssertNumberOfCalls(t, "SendAlert", 1)
	})

	t.Run("purchase receipt clears the alert", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		notifier := new(mockNotifier)
		notifier.On("SendAlert", ctx, mock.AnythingOfType("StockAlert")).Return(nil)

		h := NewLowStockHandler(zap.NewNop()).WithNotifier(notifier).WithDeduplication(store, 0)
		crossed := lowStockEvent(t, "Atropine", 3, 10)
		require.NoError(t, h.Handle(ctx, crossed))

		received := &inventory.StockReceivedEvent{
			Department: inventory.DepartmentPharmacy,
			ItemName:   "Atropine",
			Reason:     inventory.ReasonPurchaseReceipt,
		}
		require.NoError(t, h.Handle(ctx, received))
		processed, err := store.IsProcessed(ctx, AlertKey(crossed.ItemKey()))
		require.NoError(t, err)
		assert.False(t, processed)

		require.NoError(t, h.Handle(ctx, lowStockEvent(t, "Atropine", 1, 10)))
		notifier.AssertNumberOfCalls(t, "SendAlert", 2)
	})

	t.Run("sale return does not clear the alert", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		h := NewLowStockHandler(zap.NewNop()).WithDeduplication(store, 0)
		crossed := lowStockEvent(t, "Atropine", 3, 10)
		require.NoError(t, h.Handle(ctx, crossed))

		require.NoError(t, h.Handle(ctx, &inventory.StockReceivedEvent{
			Department: inventory.DepartmentPharmacy,
			ItemName:   "Atropine",
			Reason:     inventory.ReasonSaleReturn,
		}))
		processed, err := store.IsProcessed(ctx, AlertKey(crossed.ItemKey()))
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("failed delivery lets the next crossing retry", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		notifier := new(mockNotifier)
		notifier.On("SendAlert", ctx, mock.AnythingOfType("StockAlert")).Return(errors.New("smtp down")).Once()
		notifier.On("SendAlert", ctx, mock.AnythingOfType("StockAlert")).Return(nil).Once()

		h := NewLowStockHandler(zap.NewNop()).WithNotifier(notifier).WithDeduplication(store, 0)
		require.NoError(t, h.Handle(ctx, lowStockEvent(t, "Naloxone", 2, 5)))
		require.NoError(t, h.Handle(ctx, lowStockEvent(t, "Naloxone", 1, 5)))
		notifier.AssertNumberOfCalls(t, "SendAlert", 2)
	})
}

type otherEvent struct {
	shared.BaseDomainEvent
}

func TestLowStockHandler_UnexpectedEvent(t *testing.T) {
	h := NewLowStockHandler(zap.NewNop())
	err := h.Handle(context.Background(), &otherEvent{})
	assert.Error(t, err)
}
