package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared/valueobject"
	"github.com/hms/backend/internal/infrastructure/config"
)

// newTestDatabase opens a migrated in-memory SQLite database on a single connection
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newMockGormDB creates a GORM postgres connection backed by sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func mustKey(t *testing.T, dept inventory.Department, name string) inventory.ItemKey {
	t.Helper()
	key, err := inventory.NewItemKey(dept, name)
	require.NoError(t, err)
	return key
}

func receiveBatch(number string, qty int64, expiry *time.Time) inventory.ReceiveBatch {
	return inventory.ReceiveBatch{
		BatchNumber:  number,
		ExpiryDate:   expiry,
		Quantity:     qty,
		UnitCost:     valueobject.MustMoney("25.00"),
		PTR:          valueobject.MustMoney("25.00"),
		MRP:          valueobject.MustMoney("40.00"),
		SellingPrice: valueobject.MustMoney("40.00"),
		GSTPercent:   decimal.NewFromInt(12),
		UnitsPerPack: 10,
		Supplier:     "Medline Distributors",
	}
}

func receiptMovement() inventory.Movement {
	return inventory.Movement{Reason: inventory.ReasonPurchaseReceipt, ReferenceID: "seed", Actor: "store"}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}
