package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound               = NewDomainError("NOT_FOUND", "Resource not found")
	ErrValidation             = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrInvalidState           = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvoiceNotEditable     = NewDomainError("INVOICE_NOT_EDITABLE", "Completed invoices cannot be modified")
	ErrInsufficientStock      = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrOverReturn             = NewDomainError("OVER_RETURN", "Return quantity exceeds quantity sold")
	ErrAllocationInvariant    = NewDomainError("ALLOCATION_INVARIANT_VIOLATION", "Allocated cash discount does not reconcile with invoice discount")
	ErrBatchRetired           = NewDomainError("BATCH_RETIRED", "Stock batch has been retired")
	ErrRetireNonEmptyBatch    = NewDomainError("RETIRE_NON_EMPTY_BATCH", "Only empty batches can be retired")
	ErrInvalidStateTransition = NewDomainError("INVALID_STATE_TRANSITION", "Invalid status transition")
)

// ValidationError reports malformed input. It is raised before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientStockError names the shortfall of a rejected consumption.
type InsufficientStockError struct {
	ItemKey     string
	BatchNumber string
	Requested   int64
	Available   int64
}

// Shortfall returns how many units were missing
func (e *InsufficientStockError) Shortfall() int64 {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	target := e.ItemKey
	if e.BatchNumber != "" {
		target = fmt.Sprintf("%s batch %s", e.ItemKey, e.BatchNumber)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d, short by %d",
		target, e.Requested, e.Available, e.Shortfall())
}

// Is matches ErrInsufficientStock
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// OverReturnError is raised when a return would exceed the quantity sold on a line.
type OverReturnError struct {
	SaleLineID      string
	Sold            int64
	AlreadyReturned int64
	Requested       int64
}

func (e *OverReturnError) Error() string {
	return fmt.Sprintf("over-return on sale line %s: sold %d, already returned %d, requested %d",
		e.SaleLineID, e.Sold, e.AlreadyReturned, e.Requested)
}

// Is matches ErrOverReturn
func (e *OverReturnError) Is(target error) bool {
	return target == ErrOverReturn
}

// AllocationInvariantError signals a discount allocation that does not sum to the
// invoice discount. It aborts costing.
type AllocationInvariantError struct {
	Expected  string
	Allocated string
}

func (e *AllocationInvariantError) Error() string {
	return fmt.Sprintf("allocation invariant violated: expected %s, allocated %s", e.Expected, e.Allocated)
}

// Is matches ErrAllocationInvariant
func (e *AllocationInvariantError) Is(target error) bool {
	return target == ErrAllocationInvariant
}
