package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
)

// seedItem creates an item with the given batches and stores it
func seedItem(t *testing.T, repo *GormInventoryItemRepository, key inventory.ItemKey, reorder int64, batches ...inventory.ReceiveBatch) *inventory.InventoryItem {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.EnsureExists(ctx, key, reorder))
	item, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	for _, b := range batches {
		_, err := item.Receive(b, receiptMovement())
		require.NoError(t, err)
	}
	require.NoError(t, repo.Save(ctx, item))
	return item
}

func TestGormInventoryItemRepository_EnsureExists(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormInventoryItemRepository(db.DB)
	ctx := context.Background()
	key := mustKey(t, inventory.DepartmentPharmacy, "Paracetamol 500")

	t.Run("creates an empty item", func(t *testing.T) {
		require.NoError(t, repo.EnsureExists(ctx, key, 20))

		item, err := repo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(0), item.QuantityAvailable)
		assert.Equal(t, int64(20), item.ReorderLevel)
		assert.Empty(t, item.Batches)
	})

	t.Run("second call keeps the existing row", func(t *testing.T) {
		before, err := repo.FindByKey(ctx, key)
		require.NoError(t, err)

		require.NoError(t, repo.EnsureExists(ctx, key, 99))

		after, err := repo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, int64(20), after.ReorderLevel)
	})

	t.Run("same name in another department is a separate item", func(t *testing.T) {
		labKey := mustKey(t, inventory.DepartmentLab, "Paracetamol 500")
		require.NoError(t, repo.EnsureExists(ctx, labKey, 0))

		pharmacy, err := repo.FindByKey(ctx, key)
		require.NoError(t, err)
		lab, err := repo.FindByKey(ctx, labKey)
		require.NoError(t, err)
		assert.NotEqual(t, pharmacy.ID, lab.ID)
	})
}

func TestGormInventoryItemRepository_SaveAndLoad(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormInventoryItemRepository(db.DB)
	ctx := context.Background()
	key := mustKey(t, inventory.DepartmentPharmacy, "Amoxicillin 250")

	seeded := seedItem(t, repo, key, 10,
		receiveBatch("B2", 30, datePtr(2027, time.March, 1)),
		receiveBatch("B1", 20, nil),
	)

	t.Run("batches round-trip with prices", func(t *testing.T) {
		item, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.NoError(t, item.CheckInvariant())
		assert.Equal(t, int64(50), item.QuantityAvailable)
		require.Len(t, item.Batches, 2)

		// loaded in batch number order
		assert.Equal(t, "B1", item.Batches[0].BatchNumber)
		assert.Nil(t, item.Batches[0].ExpiryDate)
		b2 := item.Batches[1]
		assert.Equal(t, "B2", b2.BatchNumber)
		require.NotNil(t, b2.ExpiryDate)
		assert.Equal(t, "2027-03-01", b2.ExpiryDate.Format("2006-01-02"))
		assert.Equal(t, "25.00", b2.UnitCost.String())
		assert.Equal(t, "40.00", b2.SellingPrice.String())
		assert.Equal(t, "12", b2.GSTPercent.String())
		assert.Equal(t, int64(10), b2.UnitsPerPack)
	})

	t.Run("updates existing batches and adds new ones", func(t *testing.T) {
		item, err := repo.FindByKey(ctx, key)
		require.NoError(t, err)
		_, err = item.ConsumeFIFO(30, inventory.Movement{Reason: inventory.ReasonStockOut})
		require.NoError(t, err)
		_, err = item.Receive(receiveBatch("B3", 5, nil), receiptMovement())
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, item))

		reloaded, err := repo.FindByKey(ctx, key)
		require.NoError(t, err)
		require.NoError(t, reloaded.CheckInvariant())
		assert.Equal(t, int64(25), reloaded.QuantityAvailable)
		assert.Equal(t, int64(0), reloaded.FindBatchByNumber("B2").Quantity)
		assert.Len(t, reloaded.Batches, 3)
		assert.Equal(t, item.Version, reloaded.Version)
	})

	t.Run("retired batch flag persists", func(t *testing.T) {
		item, err := repo.FindByKey(ctx, key)
		require.NoError(t, err)
		b2 := item.FindBatchByNumber("B2")
		require.NotNil(t, b2)
		require.Equal(t, int64(0), b2.Quantity)
		require.NoError(t, item.RetireBatch(b2.ID))
		require.NoError(t, repo.Save(ctx, item))

		batch, err := repo.FindBatch(ctx, b2.ID)
		require.NoError(t, err)
		assert.True(t, batch.Deleted)
	})
}

func TestGormInventoryItemRepository_NotFound(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormInventoryItemRepository(db.DB)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByKey(ctx, mustKey(t, inventory.DepartmentLab, "EDTA tube"))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindBatch(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.LockByKeys(ctx, []inventory.ItemKey{mustKey(t, inventory.DepartmentLab, "EDTA tube")})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInventoryItemRepository_LockByKeys(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormInventoryItemRepository(db.DB)
	ctx := context.Background()

	zinc := mustKey(t, inventory.DepartmentPharmacy, "Zinc syrup")
	azith := mustKey(t, inventory.DepartmentPharmacy, "Azithromycin 500")
	reagent := mustKey(t, inventory.DepartmentLab, "CBC reagent")
	seedItem(t, repo, zinc, 0, receiveBatch("Z1", 5, nil))
	seedItem(t, repo, azith, 0, receiveBatch("A1", 5, nil), receiveBatch("A0", 3, nil))
	seedItem(t, repo, reagent, 0, receiveBatch("R1", 1, nil))

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		items, err := NewGormInventoryItemRepository(tx).LockByKeys(ctx, []inventory.ItemKey{zinc, reagent, azith, zinc})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, reagent, items[0].Key())
		assert.Equal(t, azith, items[1].Key())
		assert.Equal(t, zinc, items[2].Key())
		require.Len(t, items[1].Batches, 2)
		assert.Equal(t, "A0", items[1].Batches[0].BatchNumber)
		return nil
	})
	require.NoError(t, err)
}

func TestGormInventoryItemRepository_LockByKeys_SQL(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormInventoryItemRepository(gormDB)

	labID := uuid.New()
	pharmacyID := uuid.New()
	now := time.Now()
	itemCols := []string{"id", "created_at", "updated_at", "version", "department", "name", "quantity_available", "reorder_level"}

	// LAB/... sorts before PHARMACY/...; each item is locked before its batches
	mock.ExpectQuery(`SELECT \* FROM "inventory_items" WHERE department = \$1 AND name = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
		WithArgs("LAB", "Glucose strips", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(labID, now, now, 1, "LAB", "Glucose strips", 0, 0))
	mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE item_id = \$1 ORDER BY batch_number ASC, created_at ASC FOR UPDATE`).
		WithArgs(labID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "batch_number", "quantity"}))
	mock.ExpectQuery(`SELECT \* FROM "inventory_items" WHERE department = \$1 AND name = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
		WithArgs("PHARMACY", "Cetirizine 10", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(pharmacyID, now, now, 1, "PHARMACY", "Cetirizine 10", 0, 0))
	mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE item_id = \$1 ORDER BY batch_number ASC, created_at ASC FOR UPDATE`).
		WithArgs(pharmacyID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "batch_number", "quantity"}))

	items, err := repo.LockByKeys(context.Background(), []inventory.ItemKey{
		mustKey(t, inventory.DepartmentPharmacy, "Cetirizine 10"),
		mustKey(t, inventory.DepartmentLab, "Glucose strips"),
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, labID, items[0].ID)
	assert.Equal(t, pharmacyID, items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInventoryItemRepository_FindLowStock(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormInventoryItemRepository(db.DB)
	ctx := context.Background()

	seedItem(t, repo, mustKey(t, inventory.DepartmentPharmacy, "Cough syrup"), 10, receiveBatch("C1", 4, nil))
	seedItem(t, repo, mustKey(t, inventory.DepartmentPharmacy, "Insulin pen"), 5, receiveBatch("I1", 5, nil))
	seedItem(t, repo, mustKey(t, inventory.DepartmentPharmacy, "ORS sachet"), 10, receiveBatch("O1", 50, nil))
	seedItem(t, repo, mustKey(t, inventory.DepartmentLab, "Urine cup"), 100, receiveBatch("U1", 30, nil), receiveBatch("U2", 30, nil))

	tests := []struct {
		name   string
		policy inventory.ThresholdPolicy
		want   []string
	}{
		{
			name:   "own reorder level, at-or-under",
			policy: inventory.ThresholdPolicy{},
			want:   []string{"LAB/Urine cup", "PHARMACY/Cough syrup", "PHARMACY/Insulin pen"},
		},
		{
			name:   "department filter",
			policy: inventory.ThresholdPolicy{Department: inventory.DepartmentPharmacy},
			want:   []string{"PHARMACY/Cough syrup", "PHARMACY/Insulin pen"},
		},
		{
			name:   "fixed threshold",
			policy: inventory.ThresholdPolicy{FixedThreshold: ptrInt64(5)},
			want:   []string{"PHARMACY/Cough syrup", "PHARMACY/Insulin pen"},
		},
		{
			name:   "fixed threshold zero",
			policy: inventory.ThresholdPolicy{FixedThreshold: ptrInt64(0)},
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := repo.FindLowStock(ctx, tt.policy)
			require.NoError(t, err)
			got := make([]string, len(rows))
			for i, r := range rows {
				got[i] = r.Key.String()
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("row details", func(t *testing.T) {
		rows, err := repo.FindLowStock(ctx, inventory.ThresholdPolicy{Department: inventory.DepartmentLab})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(60), rows[0].Quantity)
		assert.Equal(t, int64(100), rows[0].Threshold)
		assert.Equal(t, 2, rows[0].BatchCount)
	})

	t.Run("rejects negative threshold", func(t *testing.T) {
		_, err := repo.FindLowStock(ctx, inventory.ThresholdPolicy{FixedThreshold: ptrInt64(-1)})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func ptrInt64(v int64) *int64 { return &v }
