package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hms/backend/internal/application/validation"
	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/sales"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/logger"
	"github.com/hms/backend/internal/infrastructure/telemetry"
)

const spanService = "stock_reconciler"

// StockReconciler applies stock movements to the batch ledger. Every mutation
// runs in one transaction that holds row locks on the items it touches and
// appends the matching ledger entries. Domain events are published only after
// the transaction commits.
type StockReconciler struct {
	txScope   TransactionScope
	itemRepo  inventory.InventoryItemRepository
	guard     *ConcurrencyGuard
	publisher shared.EventPublisher
	metrics   LedgerMetrics
	logger    *zap.Logger
}

// NewStockReconciler creates a new StockReconciler
func NewStockReconciler(
	txScope TransactionScope,
	itemRepo inventory.InventoryItemRepository,
	guard *ConcurrencyGuard,
	log *zap.Logger,
) *StockReconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StockReconciler{
		txScope:  txScope,
		itemRepo: itemRepo,
		guard:    guard,
		metrics:  noopLedgerMetrics{},
		logger:   log,
	}
}

// SetEventPublisher sets the publisher used after commit
func (r *StockReconciler) SetEventPublisher(publisher shared.EventPublisher) {
	r.publisher = publisher
}

// SetMetrics sets the ledger metrics recorder
func (r *StockReconciler) SetMetrics(metrics LedgerMetrics) {
	if metrics != nil {
		r.metrics = metrics
	}
}

// txOutcome is what a committed stock transaction leaves behind
type txOutcome struct {
	locked  *LockedItems
	entries []*inventory.LedgerEntry
}

// ReceiveInvoice adds the lines of a completed purchase invoice to stock.
// It runs inside the caller's transaction; the caller publishes the returned
// events with ReceiptCommitted once that transaction commits. A second call for
// the same invoice finds the earlier ledger entries and changes nothing.
func (r *StockReconciler) ReceiveInvoice(ctx context.Context, repos TransactionalRepositories, in ReceiptInput) (*ReceiptOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "receive_invoice",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, in.InvoiceID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(in.Lines)),
	)
	defer span.End()

	prior, err := repos.LedgerRepo().FindByReference(ctx, inventory.ReasonPurchaseReceipt, in.InvoiceID.String())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("check earlier receipt: %w", err)
	}
	if len(prior) > 0 {
		return &ReceiptOutcome{AlreadyProcessed: true}, nil
	}

	type keyedLine struct {
		lineNo int
		key    inventory.ItemKey
		line   ReceiptLine
	}
	lines := make([]keyedLine, 0, len(in.Lines))
	keys := make([]inventory.ItemKey, 0, len(in.Lines))
	for i, l := range in.Lines {
		if l.UnitsIn == 0 {
			continue
		}
		key, err := inventory.NewItemKey(in.Department, l.ItemName)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, keyedLine{lineNo: i + 1, key: key, line: l})
		keys = append(keys, key)
	}

	locked, err := r.guard.EnsureAndLock(ctx, repos.InventoryRepo(), keys)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	mv := in.movement()
	outcome := &ReceiptOutcome{}
	for _, kl := range lines {
		item := locked.Get(kl.key)
		if item == nil {
			return nil, fmt.Errorf("item %s: %w", kl.key, shared.ErrNotFound)
		}
		batch, err := item.Receive(inventory.ReceiveBatch{
			BatchNumber:  kl.line.BatchNumber,
			ExpiryDate:   kl.line.ExpiryDate,
			Quantity:     kl.line.UnitsIn,
			UnitCost:     kl.line.UnitCost,
			PTR:          kl.line.Rate,
			MRP:          kl.line.MRP,
			SellingPrice: kl.line.MRP,
			GSTPercent:   kl.line.GSTPercent,
			UnitsPerPack: kl.line.UnitsPerPack,
			Supplier:     in.SupplierName,
		}, mv)
		if err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", kl.lineNo, kl.key.Name, err)
		}
		perUnit := batch.CostPerUnit()
		entry, err := inventory.NewLedgerEntry(item, batch, inventory.DirectionIn, kl.line.UnitsIn,
			perUnit.Round2(), perUnit.MulInt(kl.line.UnitsIn).Round2(), mv)
		if err != nil {
			return nil, err
		}
		outcome.LedgerEntries = append(outcome.LedgerEntries, entry)
		outcome.UnitsIn += kl.line.UnitsIn
	}

	if err := locked.Save(ctx, repos.InventoryRepo()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(outcome.LedgerEntries) > 0 {
		if err := repos.LedgerRepo().Append(ctx, outcome.LedgerEntries...); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("append ledger: %w", err)
		}
	}
	outcome.Events = locked.DrainEvents()
	return outcome, nil
}

// ReceiptCommitted records metrics for a committed receipt and publishes its events
func (r *StockReconciler) ReceiptCommitted(ctx context.Context, in ReceiptInput, outcome *ReceiptOutcome) {
	if outcome == nil || outcome.AlreadyProcessed {
		return
	}
	r.recordEntries(outcome.LedgerEntries)
	r.publish(ctx, outcome.Events)
	logger.WithLogger(ctx, r.logger).Info("purchase invoice received into stock",
		zap.String("invoice_id", in.InvoiceID.String()),
		zap.String("supplier_invoice_no", in.SupplierInvoiceNo),
		zap.Int("lines", len(outcome.LedgerEntries)),
		zap.Int64("units_in", outcome.UnitsIn),
	)
}

// ConsumeStock draws stock for a sale, casualty administration, lab test or
// stock-out. Sale and casualty consumption must name the batch; the others
// may name only the item, in which case batches are drawn nearest expiry first.
func (r *StockReconciler) ConsumeStock(ctx context.Context, req ConsumeStockRequest) (*ConsumptionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "consume_stock",
		telemetry.WithAttribute(telemetry.SpanAttrReason, req.Reason),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, req.Quantity),
	)
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	mv := req.movement()
	if mv.Reason.RequiresPinnedBatch() && req.BatchID == nil {
		err := shared.NewValidationError("batch_id", "%s consumption must name the batch", mv.Reason)
		telemetry.RecordError(span, err)
		return nil, err
	}
	var key inventory.ItemKey
	if req.BatchID == nil {
		var err error
		if key, err = inventory.NewItemKey(inventory.Department(req.Department), req.ItemName); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	result := &ConsumptionResult{}
	err := r.run(ctx, "consume_stock", func(repos TransactionalRepositories) (*txOutcome, error) {
		var (
			locked *LockedItems
			item   *inventory.InventoryItem
			c      *inventory.Consumption
			err    error
		)
		if req.BatchID != nil {
			if locked, err = r.guard.LockBatchOwners(ctx, repos.InventoryRepo(), []uuid.UUID{*req.BatchID}); err != nil {
				return nil, err
			}
			item = locked.ByBatch(*req.BatchID)
			c, err = item.ConsumeFromBatch(*req.BatchID, req.Quantity, mv)
		} else {
			if locked, err = r.guard.LockItems(ctx, repos.InventoryRepo(), []inventory.ItemKey{key}); err != nil {
				return nil, err
			}
			if item = locked.Get(key); item == nil {
				return nil, fmt.Errorf("item %s: %w", key, shared.ErrNotFound)
			}
			c, err = item.ConsumeFIFO(req.Quantity, mv)
		}
		if err != nil {
			return nil, err
		}

		entries, err := inventory.OutEntries(item, c, mv)
		if err != nil {
			return nil, err
		}
		if err := r.persist(ctx, repos, locked, entries); err != nil {
			return nil, err
		}
		result.Consumption = c
		result.LedgerEntries = entries
		return &txOutcome{locked: locked, entries: entries}, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.WithLogger(ctx, r.logger).Info("stock consumed",
		zap.String("item", result.Consumption.ItemKey.String()),
		zap.String("reason", req.Reason),
		zap.Int64("quantity", req.Quantity),
		zap.Int("batches", len(result.Consumption.Deductions)),
		zap.Int64("balance_after", result.Consumption.BalanceAfter),
	)
	return result, nil
}

// DispenseSale creates a pharmacy sale and draws each line from its pinned batch.
// The unit price defaults to the batch selling price per unit and the GST rate
// to the batch rate; both are frozen on the sale line for later returns.
func (r *StockReconciler) DispenseSale(ctx context.Context, req DispenseSaleRequest) (*SaleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "dispense_sale",
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(req.Lines)),
	)
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	batchIDs := make([]uuid.UUID, len(req.Lines))
	for i, l := range req.Lines {
		batchIDs[i] = l.BatchID
	}

	result := &SaleResult{}
	err := r.run(ctx, "dispense_sale", func(repos TransactionalRepositories) (*txOutcome, error) {
		locked, err := r.guard.LockBatchOwners(ctx, repos.InventoryRepo(), batchIDs)
		if err != nil {
			return nil, err
		}

		sale := sales.NewSale(req.VisitID, req.PatientName, req.SoldBy)
		mv := inventory.Movement{
			Reason:      inventory.ReasonSale,
			ReferenceID: sale.ID.String(),
			Actor:       req.SoldBy,
		}
		var entries []*inventory.LedgerEntry
		for i, l := range req.Lines {
			item := locked.ByBatch(l.BatchID)
			if item.Department != inventory.DepartmentPharmacy {
				return nil, shared.NewValidationError("batch_id", "line %d: batch is %s stock, not pharmacy", i+1, item.Department)
			}
			batch := item.FindBatch(l.BatchID)
			price := batch.DefaultUnitPrice()
			if l.UnitPrice != nil {
				price = *l.UnitPrice
			}
			gst := batch.GSTPercent
			if l.GSTPercent != nil {
				gst = *l.GSTPercent
			}

			c, err := item.ConsumeFromBatch(l.BatchID, l.Quantity, mv)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			if _, err := sale.AddLine(sales.NewSaleLineInput{
				ItemID:      item.ID,
				BatchID:     batch.ID,
				ItemName:    item.Name,
				BatchNumber: batch.BatchNumber,
				Quantity:    l.Quantity,
				UnitPrice:   price,
				GSTPercent:  gst,
			}); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			out, err := inventory.OutEntries(item, c, mv)
			if err != nil {
				return nil, err
			}
			entries = append(entries, out...)
		}

		if err := repos.SaleRepo().Create(ctx, sale); err != nil {
			return nil, fmt.Errorf("create sale: %w", err)
		}
		if err := r.persist(ctx, repos, locked, entries); err != nil {
			return nil, err
		}
		result.Sale = sale
		result.LedgerEntries = entries
		return &txOutcome{locked: locked, entries: entries}, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.WithLogger(ctx, r.logger).Info("sale dispensed",
		zap.String("sale_id", result.Sale.ID.String()),
		zap.Int("lines", len(result.Sale.Lines)),
		zap.String("total", result.Sale.TotalAmount.String()),
	)
	return result, nil
}

// ConsumeForLabTest consumes lab stock for performed tests, FIFO per item.
// Explicit items win over the test's default recipe; recipe quantities are
// multiplied by the test count.
func (r *StockReconciler) ConsumeForLabTest(ctx context.Context, req LabTestConsumptionRequest) (*LabConsumptionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "consume_lab_test",
		telemetry.WithAttribute(telemetry.SpanAttrTestCode, req.TestCode),
	)
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	count := req.TestCount
	if count == 0 {
		count = 1
	}
	mv := inventory.Movement{
		Reason:      inventory.ReasonLabTest,
		ReferenceID: req.ReferenceID,
		Actor:       req.Actor,
	}
	if req.TestCode != "" {
		mv.Note = "test " + req.TestCode
	}

	result := &LabConsumptionResult{}
	err := r.run(ctx, "consume_lab_test", func(repos TransactionalRepositories) (*txOutcome, error) {
		requirements := make(map[string]int64, len(req.Items))
		if len(req.Items) > 0 {
			for _, it := range req.Items {
				requirements[strings.TrimSpace(it.ItemName)] += it.Quantity
			}
		} else {
			recipe, err := repos.RecipeRepo().FindByTestCode(ctx, req.TestCode)
			if err != nil {
				return nil, fmt.Errorf("recipe for test %s: %w", req.TestCode, err)
			}
			requirements = recipe.Requirements(count)
		}
		if len(requirements) == 0 {
			return nil, shared.NewValidationError("items", "nothing to consume for test %q", req.TestCode)
		}

		keys := make([]inventory.ItemKey, 0, len(requirements))
		for name := range requirements {
			key, err := inventory.NewItemKey(inventory.DepartmentLab, name)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		locked, err := r.guard.LockItems(ctx, repos.InventoryRepo(), keys)
		if err != nil {
			return nil, err
		}

		var entries []*inventory.LedgerEntry
		for _, key := range inventory.SortedUniqueKeys(keys) {
			item := locked.Get(key)
			if item == nil {
				return nil, fmt.Errorf("item %s: %w", key, shared.ErrNotFound)
			}
			c, err := item.ConsumeFIFO(requirements[key.Name], mv)
			if err != nil {
				return nil, err
			}
			out, err := inventory.OutEntries(item, c, mv)
			if err != nil {
				return nil, err
			}
			result.Consumptions = append(result.Consumptions, c)
			entries = append(entries, out...)
		}
		if err := r.persist(ctx, repos, locked, entries); err != nil {
			return nil, err
		}
		result.LedgerEntries = entries
		return &txOutcome{locked: locked, entries: entries}, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.WithLogger(ctx, r.logger).Info("lab stock consumed",
		zap.String("test_code", req.TestCode),
		zap.Int("items", len(result.Consumptions)),
	)
	return result, nil
}

// ReverseStock returns units of a sale line to the batch they were sold from
// and prices the refund at the sale-time unit price and GST rate.
func (r *StockReconciler) ReverseStock(ctx context.Context, req ReverseStockRequest) (*ReversalResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "reverse_stock",
		telemetry.WithAttribute(telemetry.SpanAttrSaleLineID, req.SaleLineID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, req.Quantity),
	)
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &ReversalResult{}
	err := r.run(ctx, "reverse_stock", func(repos TransactionalRepositories) (*txOutcome, error) {
		line, err := repos.SaleRepo().LockLine(ctx, req.SaleLineID)
		if err != nil {
			return nil, fmt.Errorf("sale line %s: %w", req.SaleLineID, err)
		}
		ret, err := sales.NewSaleReturn(line, req.Quantity, req.Reason, req.Actor)
		if err != nil {
			return nil, err
		}

		locked, err := r.guard.LockBatchOwners(ctx, repos.InventoryRepo(), []uuid.UUID{line.BatchID})
		if err != nil {
			return nil, err
		}
		item := locked.ByBatch(line.BatchID)
		mv := inventory.Movement{
			Reason:      inventory.ReasonSaleReturn,
			ReferenceID: line.ID.String(),
			Actor:       req.Actor,
			Note:        req.Reason,
		}
		batch, err := item.Restore(line.BatchID, req.Quantity, mv)
		if err != nil {
			return nil, err
		}
		perUnit := batch.CostPerUnit()
		entry, err := inventory.NewLedgerEntry(item, batch, inventory.DirectionIn, req.Quantity,
			perUnit.Round2(), perUnit.MulInt(req.Quantity).Round2(), mv)
		if err != nil {
			return nil, err
		}

		if err := repos.SaleRepo().SaveLine(ctx, line); err != nil {
			return nil, fmt.Errorf("save sale line: %w", err)
		}
		if err := repos.SaleRepo().CreateReturn(ctx, ret); err != nil {
			return nil, fmt.Errorf("create sale return: %w", err)
		}
		if err := r.persist(ctx, repos, locked, []*inventory.LedgerEntry{entry}); err != nil {
			return nil, err
		}
		result.Return = ret
		result.LedgerEntry = entry
		result.BalanceAfter = item.QuantityAvailable
		return &txOutcome{locked: locked, entries: []*inventory.LedgerEntry{entry}}, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.WithLogger(ctx, r.logger).Info("sale return restocked",
		zap.String("sale_line_id", req.SaleLineID.String()),
		zap.Int64("quantity", req.Quantity),
		zap.String("refund", result.Return.RefundAmount.String()),
		zap.String("gst_reversed", result.Return.GSTReversed.String()),
	)
	return result, nil
}

// LowStockItems lists items at or under the policy threshold. It takes no locks.
func (r *StockReconciler) LowStockItems(ctx context.Context, policy inventory.ThresholdPolicy) ([]inventory.LowStockItem, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "low_stock_items")
	defer span.End()

	if err := policy.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	items, err := r.itemRepo.FindLowStock(ctx, policy)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("find low stock: %w", err)
	}
	return items, nil
}

// run executes fn in a new transaction and, once it commits, records the
// movements and publishes the events of the locked items
func (r *StockReconciler) run(ctx context.Context, operation string, fn func(repos TransactionalRepositories) (*txOutcome, error)) error {
	start := time.Now()
	var outcome *txOutcome
	err := r.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		outcome, err = fn(repos)
		return err
	})
	r.metrics.ObserveTransaction(operation, time.Since(start), err)
	if err != nil {
		r.recordRejection(ctx, operation, err)
		return err
	}
	r.recordEntries(outcome.entries)
	r.publish(ctx, outcome.locked.DrainEvents())
	return nil
}

func (r *StockReconciler) persist(ctx context.Context, repos TransactionalRepositories, locked *LockedItems, entries []*inventory.LedgerEntry) error {
	if err := locked.Save(ctx, repos.InventoryRepo()); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	if err := repos.LedgerRepo().Append(ctx, entries...); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return nil
}

func (r *StockReconciler) recordEntries(entries []*inventory.LedgerEntry) {
	for _, e := range entries {
		r.metrics.RecordMovement(e.Department, e.Reason, e.Direction, e.Quantity)
	}
}

func (r *StockReconciler) recordRejection(ctx context.Context, operation string, err error) {
	var cause string
	switch {
	case errors.Is(err, shared.ErrInsufficientStock):
		cause = "insufficient_stock"
	case errors.Is(err, shared.ErrOverReturn):
		cause = "over_return"
	case errors.Is(err, shared.ErrValidation):
		cause = "validation"
	case errors.Is(err, shared.ErrNotFound):
		cause = "not_found"
	case errors.Is(err, shared.ErrBatchRetired):
		cause = "batch_retired"
	default:
		logger.WithLogger(ctx, r.logger).Error("stock transaction failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return
	}
	r.metrics.RecordRejection(operation, cause)
	logger.WithLogger(ctx, r.logger).Warn("stock operation rejected",
		zap.String("operation", operation),
		zap.String("cause", cause),
		zap.Error(err),
	)
}

// publish hands committed events to the publisher. The mutation has already
// committed, so a publish failure is logged and not returned.
func (r *StockReconciler) publish(ctx context.Context, events []shared.DomainEvent) {
	for _, e := range events {
		if crossed, ok := e.(*inventory.LowStockCrossedEvent); ok {
			r.metrics.RecordLowStockCrossed(crossed.Department)
		}
	}
	if r.publisher == nil || len(events) == 0 {
		return
	}
	if err := r.publisher.Publish(ctx, events...); err != nil {
		logger.WithLogger(ctx, r.logger).Error("failed to publish stock events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
