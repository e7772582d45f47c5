package purchasing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appinventory "github.com/hms/backend/internal/application/inventory"
	"github.com/hms/backend/internal/application/validation"
	"github.com/hms/backend/internal/domain/costing"
	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/purchasing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/logger"
	"github.com/hms/backend/internal/infrastructure/telemetry"
)

const spanService = "purchase_invoice"

// InvoiceService handles purchase invoice editing, costing and completion
type InvoiceService struct {
	txScope     TransactionScope
	invoiceRepo purchasing.PurchaseInvoiceRepository
	engine      *costing.Engine
	reconciler  *appinventory.StockReconciler
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	txScope TransactionScope,
	invoiceRepo purchasing.PurchaseInvoiceRepository,
	reconciler *appinventory.StockReconciler,
	log *zap.Logger,
) *InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InvoiceService{
		txScope:     txScope,
		invoiceRepo: invoiceRepo,
		engine:      costing.NewEngine(),
		reconciler:  reconciler,
		logger:      log,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// CreateDraft stores a new DRAFT invoice with its lines
func (s *InvoiceService) CreateDraft(ctx context.Context, req CreateInvoiceRequest) (*purchasing.PurchaseInvoice, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	invoice, err := purchasing.NewPurchaseInvoice(purchasing.NewInvoiceInput{
		Department:        inventory.Department(req.Department),
		SupplierID:        req.SupplierID,
		SupplierName:      req.SupplierName,
		SupplierInvoiceNo: req.SupplierInvoiceNo,
		InvoiceDate:       req.InvoiceDate,
		PurchaseType:      purchasing.PurchaseType(req.PurchaseType),
		CreditDays:        req.CreditDays,
		CashDiscount:      req.CashDiscount,
		CourierCharge:     req.CourierCharge,
		CreatedBy:         req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	if err := invoice.ReplaceLines(toLineInputs(req.Lines)); err != nil {
		return nil, err
	}
	invoice.ClearDomainEvents()
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return invoice, nil
}

// GetInvoice loads an invoice with its lines
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*purchasing.PurchaseInvoice, error) {
	return s.invoiceRepo.FindByID(ctx, invoiceID)
}

// ReplaceLines swaps every line of a DRAFT invoice. The invoice must be costed again.
func (s *InvoiceService) ReplaceLines(ctx context.Context, invoiceID uuid.UUID, req ReplaceLinesRequest) (*purchasing.PurchaseInvoice, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.mutateDraft(ctx, invoiceID, func(invoice *purchasing.PurchaseInvoice) error {
		return invoice.ReplaceLines(toLineInputs(req.Lines))
	})
}

// UpdateCharges changes the cash discount and courier charge of a DRAFT invoice
func (s *InvoiceService) UpdateCharges(ctx context.Context, invoiceID uuid.UUID, req UpdateChargesRequest) (*purchasing.PurchaseInvoice, error) {
	return s.mutateDraft(ctx, invoiceID, func(invoice *purchasing.PurchaseInvoice) error {
		return invoice.UpdateCharges(req.CashDiscount, req.CourierCharge)
	})
}

func (s *InvoiceService) mutateDraft(ctx context.Context, invoiceID uuid.UUID, fn func(*purchasing.PurchaseInvoice) error) (*purchasing.PurchaseInvoice, error) {
	var invoice *purchasing.PurchaseInvoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if invoice, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID); err != nil {
			return err
		}
		if err := fn(invoice); err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// CostInvoice runs the costing engine over a DRAFT invoice and stores every
// line's derived amounts and the invoice total in one transaction. Nothing is
// written when costing fails. A COMPLETED invoice is returned as stored.
func (s *InvoiceService) CostInvoice(ctx context.Context, invoiceID uuid.UUID) (*costing.InvoiceTotals, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "cost",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
	)
	defer span.End()

	var (
		totals *costing.InvoiceTotals
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.IsCompleted() {
			totals = invoice.Totals()
			return nil
		}
		if totals, err = s.cost(invoice); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
			return fmt.Errorf("save costed invoice: %w", err)
		}
		events = invoice.GetDomainEvents()
		invoice.ClearDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publish(ctx, events)
	return totals, nil
}

// CompleteInvoiceReceipt costs a DRAFT invoice, moves it to COMPLETED and
// receives its lines into stock, all in one transaction. The invoice row is
// locked first, so concurrent calls for the same invoice run one after the
// other; once stock has been received further calls report AlreadyProcessed
// and change nothing.
func (s *InvoiceService) CompleteInvoiceReceipt(ctx context.Context, invoiceID uuid.UUID) (*ReceiptResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "complete_receipt",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()),
	)
	defer span.End()

	var (
		result  *ReceiptResult
		receipt appinventory.ReceiptInput
		outcome *appinventory.ReceiptOutcome
		events  []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.IsStockReceived() {
			result = &ReceiptResult{
				InvoiceID:        invoice.ID,
				Status:           invoice.Status,
				Totals:           invoice.Totals(),
				AlreadyProcessed: true,
			}
			return nil
		}

		if invoice.IsDraft() {
			if _, err := s.cost(invoice); err != nil {
				return err
			}
			if err := invoice.Complete(); err != nil {
				return err
			}
		}

		receipt = receiptInput(invoice, invoice.CreatedBy)
		if outcome, err = s.reconciler.ReceiveInvoice(ctx, repos, receipt); err != nil {
			return err
		}
		if err := invoice.MarkStockReceived(); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
			return fmt.Errorf("save completed invoice: %w", err)
		}
		events = invoice.GetDomainEvents()
		invoice.ClearDomainEvents()

		result = &ReceiptResult{
			InvoiceID:        invoice.ID,
			Status:           invoice.Status,
			Totals:           invoice.Totals(),
			AlreadyProcessed: outcome.AlreadyProcessed,
			UnitsIn:          outcome.UnitsIn,
			LedgerEntries:    outcome.LedgerEntries,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		logger.WithLogger(ctx, s.logger).Warn("invoice completion failed",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if result.AlreadyProcessed {
		logger.WithLogger(ctx, s.logger).Info("invoice stock already received",
			zap.String("invoice_id", invoiceID.String()),
		)
	}

	s.publish(ctx, events)
	s.reconciler.ReceiptCommitted(ctx, receipt, outcome)
	return result, nil
}

// cost runs the engine and stores the result on the invoice
func (s *InvoiceService) cost(invoice *purchasing.PurchaseInvoice) (*costing.InvoiceTotals, error) {
	totals, err := s.engine.Cost(invoice.CostingInput())
	if err != nil {
		return nil, err
	}
	if err := invoice.ApplyCosting(totals); err != nil {
		return nil, err
	}
	return totals, nil
}

func (s *InvoiceService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.WithLogger(ctx, s.logger).Error("failed to publish invoice events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
