package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
)

// ConcurrencyGuard takes the row locks a stock mutation needs. Every caller
// locks item rows (and through them their batches) in ascending ItemKey order,
// so two transactions touching overlapping items can never wait on each other
// in a cycle. The locks are held until the surrounding transaction ends.
type ConcurrencyGuard struct {
	defaultReorderLevel int64
}

// NewConcurrencyGuard creates a guard. Items created on receipt start with defaultReorderLevel.
func NewConcurrencyGuard(defaultReorderLevel int64) *ConcurrencyGuard {
	return &ConcurrencyGuard{defaultReorderLevel: defaultReorderLevel}
}

// LockItems locks existing items. A key without an item is ErrNotFound.
func (g *ConcurrencyGuard) LockItems(ctx context.Context, repo inventory.InventoryItemRepository, keys []inventory.ItemKey) (*LockedItems, error) {
	ordered := inventory.SortedUniqueKeys(keys)
	if len(ordered) == 0 {
		return newLockedItems(nil), nil
	}
	items, err := repo.LockByKeys(ctx, ordered)
	if err != nil {
		return nil, fmt.Errorf("lock items: %w", err)
	}
	return newLockedItems(items), nil
}

// EnsureAndLock creates missing item rows, then locks all of them.
// Creation never blocks on an existing row, so it is safe before locking.
func (g *ConcurrencyGuard) EnsureAndLock(ctx context.Context, repo inventory.InventoryItemRepository, keys []inventory.ItemKey) (*LockedItems, error) {
	ordered := inventory.SortedUniqueKeys(keys)
	for _, key := range ordered {
		if err := repo.EnsureExists(ctx, key, g.defaultReorderLevel); err != nil {
			return nil, fmt.Errorf("ensure item %s: %w", key, err)
		}
	}
	return g.LockItems(ctx, repo, ordered)
}

// LockBatchOwners locks the items owning the given batches.
// Batches are resolved without a lock first, then verified against the locked items.
func (g *ConcurrencyGuard) LockBatchOwners(ctx context.Context, repo inventory.InventoryItemRepository, batchIDs []uuid.UUID) (*LockedItems, error) {
	keys := make([]inventory.ItemKey, 0, len(batchIDs))
	owners := make(map[uuid.UUID]inventory.ItemKey, len(batchIDs))
	for _, batchID := range batchIDs {
		if _, ok := owners[batchID]; ok {
			continue
		}
		batch, err := repo.FindBatch(ctx, batchID)
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", batchID, err)
		}
		item, err := repo.FindByID(ctx, batch.ItemID)
		if err != nil {
			return nil, fmt.Errorf("item of batch %s: %w", batchID, err)
		}
		owners[batchID] = item.Key()
		keys = append(keys, item.Key())
	}

	locked, err := g.LockItems(ctx, repo, keys)
	if err != nil {
		return nil, err
	}
	for batchID := range owners {
		if locked.ByBatch(batchID) == nil {
			return nil, fmt.Errorf("batch %s: %w", batchID, shared.ErrNotFound)
		}
	}
	return locked, nil
}

// LockedItems is the set of items held under lock by one transaction
type LockedItems struct {
	ordered []*inventory.InventoryItem
	byKey   map[inventory.ItemKey]*inventory.InventoryItem
}

func newLockedItems(items []*inventory.InventoryItem) *LockedItems {
	byKey := make(map[inventory.ItemKey]*inventory.InventoryItem, len(items))
	for _, item := range items {
		byKey[item.Key()] = item
	}
	return &LockedItems{ordered: items, byKey: byKey}
}

// Get returns the locked item for key, or nil
func (l *LockedItems) Get(key inventory.ItemKey) *inventory.InventoryItem {
	return l.byKey[key]
}

// ByBatch returns the locked item owning batchID, or nil
func (l *LockedItems) ByBatch(batchID uuid.UUID) *inventory.InventoryItem {
	for _, item := range l.ordered {
		if item.FindBatch(batchID) != nil {
			return item
		}
	}
	return nil
}

// Items returns the locked items in lock order
func (l *LockedItems) Items() []*inventory.InventoryItem {
	return l.ordered
}

// Save checks and writes every locked item in lock order
func (l *LockedItems) Save(ctx context.Context, repo inventory.InventoryItemRepository) error {
	for _, item := range l.ordered {
		if err := item.CheckInvariant(); err != nil {
			return err
		}
		if err := repo.Save(ctx, item); err != nil {
			return fmt.Errorf("save item %s: %w", item.Key(), err)
		}
	}
	return nil
}

// DrainEvents collects and clears the pending domain events of every locked item
func (l *LockedItems) DrainEvents() []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, item := range l.ordered {
		events = append(events, item.GetDomainEvents()...)
		item.ClearDomainEvents()
	}
	return events
}
