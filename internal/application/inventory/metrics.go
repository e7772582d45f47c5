package inventory

import (
	"time"

	"github.com/hms/backend/internal/domain/inventory"
)

// LedgerMetrics records stock ledger activity
type LedgerMetrics interface {
	// RecordMovement counts units moved in one direction for one reason
	RecordMovement(department inventory.Department, reason inventory.MovementReason, direction inventory.Direction, units int64)
	// RecordRejection counts operations refused by a business rule
	RecordRejection(operation, cause string)
	// RecordLowStockCrossed counts items falling under their reorder level
	RecordLowStockCrossed(department inventory.Department)
	// ObserveTransaction records how long a stock transaction took
	ObserveTransaction(operation string, d time.Duration, err error)
}

type noopLedgerMetrics struct{}

func (noopLedgerMetrics) RecordMovement(inventory.Department, inventory.MovementReason, inventory.Direction, int64) {}

func (noopLedgerMetrics) RecordRejection(string, string) {}

func (noopLedgerMetrics) RecordLowStockCrossed(inventory.Department) {}

func (noopLedgerMetrics) ObserveTransaction(string, time.Duration, error) {}
