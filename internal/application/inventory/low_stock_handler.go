package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
)

// DefaultAlertTTL is how long a low stock alert suppresses repeats for the same item
const DefaultAlertTTL = 24 * time.Hour

// LowStockHandler turns LowStockCrossed events into alerts. While an alert
// for an item is active, further crossings of the same item are not re-sent;
// a purchase receipt for the item ends the active alert.
type LowStockHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
	store    shared.IdempotencyStore
	ttl      time.Duration
}

// StockAlertNotifier delivers a stock alert to staff
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	ItemID       string `json:"item_id"`
	Department   string `json:"department"`
	ItemName     string `json:"item_name"`
	Quantity     int64  `json:"quantity"`
	ReorderLevel int64  `json:"reorder_level"`
	AlertType    string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewLowStockHandler creates a new handler for low stock events
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{
		logger: logger,
		ttl:    DefaultAlertTTL,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *LowStockHandler) WithNotifier(notifier StockAlertNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// WithDeduplication suppresses repeat alerts for an item for ttl
func (h *LowStockHandler) WithDeduplication(store shared.IdempotencyStore, ttl time.Duration) *LowStockHandler {
	h.store = store
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{inventory.EventTypeLowStockCrossed, inventory.EventTypeStockReceived}
}

// Handle processes LowStockCrossed and StockReceived events
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *inventory.LowStockCrossedEvent:
		return h.alert(ctx, e)
	case *inventory.StockReceivedEvent:
		if e.Reason != inventory.ReasonPurchaseReceipt {
			return nil
		}
		return h.ClearAlert(ctx, inventory.ItemKey{Department: e.Department, Name: e.ItemName})
	default:
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeLowStockCrossed),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeLowStockCrossed, event.EventType())
	}
}

func (h *LowStockHandler) alert(ctx context.Context, crossed *inventory.LowStockCrossedEvent) error {
	key := AlertKey(crossed.ItemKey())
	if h.store != nil {
		fresh, err := h.store.MarkProcessed(ctx, key, h.ttl)
		if err != nil {
			// fall through and alert without dedup
			h.logger.Warn("alert dedup unavailable", zap.String("key", key), zap.Error(err))
		} else if !fresh {
			h.logger.Debug("low stock alert already active", zap.String("key", key))
			return nil
		}
	}

	alertType := "low_stock"
	if crossed.Quantity == 0 {
		alertType = "out_of_stock"
	}
	alert := StockAlert{
		ItemID:       crossed.AggregateID().String(),
		Department:   string(crossed.Department),
		ItemName:     crossed.ItemName,
		Quantity:     crossed.Quantity,
		ReorderLevel: crossed.ReorderLevel,
		AlertType:    alertType,
	}

	h.logger.Warn("stock fell below reorder level",
		zap.String("item", crossed.ItemKey().String()),
		zap.Int64("quantity", crossed.Quantity),
		zap.Int64("reorder_level", crossed.ReorderLevel),
	)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			h.logger.Error("failed to send stock alert notification",
				zap.String("item", crossed.ItemKey().String()),
				zap.Error(err),
			)
			// Let the next crossing try again
			if h.store != nil {
				_ = h.store.Forget(ctx, key)
			}
		}
	}
	return nil
}

// ClearAlert ends the active alert for an item, e.g. after it was restocked
func (h *LowStockHandler) ClearAlert(ctx context.Context, key inventory.ItemKey) error {
	if h.store == nil {
		return nil
	}
	return h.store.Forget(ctx, AlertKey(key))
}

// AlertKey is the dedup key of an item's low stock alert
func AlertKey(key inventory.ItemKey) string {
	return "low-stock:" + key.String()
}

var _ shared.EventHandler = (*LowStockHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("department", alert.Department),
		zap.String("item", alert.ItemName),
		zap.Int64("quantity", alert.Quantity),
		zap.Int64("reorder_level", alert.ReorderLevel),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
