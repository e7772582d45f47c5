package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
)

// InventoryItemModel is the persistence model for the InventoryItem aggregate root.
// One row per (department, name).
type InventoryItemModel struct {
	AggregateModel
	Department        string `gorm:"type:varchar(20);not null;uniqueIndex:idx_inventory_item_key,priority:1"`
	Name              string `gorm:"type:varchar(200);not null;uniqueIndex:idx_inventory_item_key,priority:2"`
	QuantityAvailable int64  `gorm:"not null;default:0"`
	ReorderLevel      int64  `gorm:"not null;default:0"`
	// Associations
	Batches []StockBatchModel `gorm:"foreignKey:ItemID;references:ID"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain InventoryItem.
// Batches must already be loaded in lock order.
func (m *InventoryItemModel) ToDomain() *inventory.InventoryItem {
	item := &inventory.InventoryItem{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Department:        inventory.Department(m.Department),
		Name:              m.Name,
		QuantityAvailable: m.QuantityAvailable,
		ReorderLevel:      m.ReorderLevel,
		Batches:           make([]*inventory.StockBatch, len(m.Batches)),
	}
	for i := range m.Batches {
		item.Batches[i] = m.Batches[i].ToDomain()
	}
	return item
}

// FromDomain populates the persistence model from a domain InventoryItem.
// Batches are written separately by the repository.
func (m *InventoryItemModel) FromDomain(i *inventory.InventoryItem) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.Department = string(i.Department)
	m.Name = i.Name
	m.QuantityAvailable = i.QuantityAvailable
	m.ReorderLevel = i.ReorderLevel
}

// InventoryItemModelFromDomain creates a new persistence model from a domain InventoryItem.
func InventoryItemModelFromDomain(i *inventory.InventoryItem) *InventoryItemModel {
	m := &InventoryItemModel{}
	m.FromDomain(i)
	return m
}

// StockBatchModel is the persistence model for the StockBatch entity.
type StockBatchModel struct {
	BaseModel
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_batch_item_number,priority:1"`
	BatchNumber  string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_stock_batch_item_number,priority:2"`
	ExpiryDate   *time.Time      `gorm:"type:date;index"`
	Quantity     int64           `gorm:"not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PTR          decimal.Decimal `gorm:"column:ptr;type:decimal(18,4);not null;default:0"`
	MRP          decimal.Decimal `gorm:"column:mrp;type:decimal(18,4);not null;default:0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	GSTPercent   decimal.Decimal `gorm:"column:gst_percent;type:decimal(5,2);not null;default:0"`
	UnitsPerPack int64           `gorm:"not null;default:1"`
	Supplier     string          `gorm:"type:varchar(200)"`
	Deleted      bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the persistence model to a domain StockBatch.
func (m *StockBatchModel) ToDomain() *inventory.StockBatch {
	return &inventory.StockBatch{
		BaseEntity:   m.BaseModel.ToDomain(),
		ItemID:       m.ItemID,
		BatchNumber:  m.BatchNumber,
		ExpiryDate:   m.ExpiryDate,
		Quantity:     m.Quantity,
		UnitCost:     money(m.UnitCost),
		PTR:          money(m.PTR),
		MRP:          money(m.MRP),
		SellingPrice: money(m.SellingPrice),
		GSTPercent:   m.GSTPercent,
		UnitsPerPack: m.UnitsPerPack,
		Supplier:     m.Supplier,
		Deleted:      m.Deleted,
	}
}

// FromDomain populates the persistence model from a domain StockBatch.
func (m *StockBatchModel) FromDomain(b *inventory.StockBatch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.ItemID = b.ItemID
	m.BatchNumber = b.BatchNumber
	m.ExpiryDate = b.ExpiryDate
	m.Quantity = b.Quantity
	m.UnitCost = b.UnitCost.Amount()
	m.PTR = b.PTR.Amount()
	m.MRP = b.MRP.Amount()
	m.SellingPrice = b.SellingPrice.Amount()
	m.GSTPercent = b.GSTPercent
	m.UnitsPerPack = b.UnitsPerPack
	m.Supplier = b.Supplier
	m.Deleted = b.Deleted
}

// StockBatchModelFromDomain creates a new persistence model from a domain StockBatch.
func StockBatchModelFromDomain(b *inventory.StockBatch) *StockBatchModel {
	m := &StockBatchModel{}
	m.FromDomain(b)
	return m
}

// LedgerEntryModel is the persistence model for the append-only stock ledger.
// Rows are never updated or deleted.
type LedgerEntryModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_item_created,priority:1"`
	BatchID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Department   string          `gorm:"type:varchar(20);not null"`
	ItemName     string          `gorm:"type:varchar(200);not null"`
	BatchNumber  string          `gorm:"type:varchar(50);not null"`
	Direction    string          `gorm:"type:varchar(3);not null"`
	Reason       string          `gorm:"type:varchar(30);not null;index:idx_ledger_reference,priority:1"`
	Quantity     int64           `gorm:"not null"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceAfter int64           `gorm:"not null"`
	ReferenceID  string          `gorm:"type:varchar(100);index:idx_ledger_reference,priority:2"`
	Actor        string          `gorm:"type:varchar(100)"`
	Note         string          `gorm:"type:text"`
	CreatedAt    time.Time       `gorm:"not null;index:idx_ledger_item_created,priority:2"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "stock_ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() inventory.LedgerEntry {
	return inventory.LedgerEntry{
		ID:           m.ID,
		ItemID:       m.ItemID,
		BatchID:      m.BatchID,
		Department:   inventory.Department(m.Department),
		ItemName:     m.ItemName,
		BatchNumber:  m.BatchNumber,
		Direction:    inventory.Direction(m.Direction),
		Reason:       inventory.MovementReason(m.Reason),
		Quantity:     m.Quantity,
		UnitCost:     money(m.UnitCost),
		TotalCost:    money(m.TotalCost),
		BalanceAfter: m.BalanceAfter,
		ReferenceID:  m.ReferenceID,
		Actor:        m.Actor,
		Note:         m.Note,
		CreatedAt:    m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry.
func LedgerEntryModelFromDomain(e *inventory.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:           e.ID,
		ItemID:       e.ItemID,
		BatchID:      e.BatchID,
		Department:   string(e.Department),
		ItemName:     e.ItemName,
		BatchNumber:  e.BatchNumber,
		Direction:    string(e.Direction),
		Reason:       string(e.Reason),
		Quantity:     e.Quantity,
		UnitCost:     e.UnitCost.Amount(),
		TotalCost:    e.TotalCost.Amount(),
		BalanceAfter: e.BalanceAfter,
		ReferenceID:  e.ReferenceID,
		Actor:        e.Actor,
		Note:         e.Note,
		CreatedAt:    e.CreatedAt,
	}
}

// LabRecipeModel is the persistence model for a lab test's default consumption.
type LabRecipeModel struct {
	TestCode   string                    `gorm:"type:varchar(50);primary_key"`
	UpdatedAt  time.Time                 `gorm:"not null"`
	Components []LabRecipeComponentModel `gorm:"foreignKey:TestCode;references:TestCode"`
}

// TableName returns the table name for GORM
func (LabRecipeModel) TableName() string {
	return "lab_test_recipes"
}

// LabRecipeComponentModel is one item line of a lab recipe.
type LabRecipeComponentModel struct {
	BaseModel
	TestCode        string `gorm:"type:varchar(50);not null;index"`
	Position        int    `gorm:"not null"`
	ItemName        string `gorm:"type:varchar(200);not null"`
	QuantityPerTest int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LabRecipeComponentModel) TableName() string {
	return "lab_test_recipe_components"
}

// ToDomain converts the persistence model to a domain LabTestRecipe.
// Components must be loaded ordered by position.
func (m *LabRecipeModel) ToDomain() *inventory.LabTestRecipe {
	recipe := &inventory.LabTestRecipe{
		TestCode:   m.TestCode,
		Components: make([]inventory.RecipeComponent, len(m.Components)),
	}
	for i, c := range m.Components {
		recipe.Components[i] = inventory.RecipeComponent{
			ItemName:        c.ItemName,
			QuantityPerTest: c.QuantityPerTest,
		}
	}
	return recipe
}

// LabRecipeModelFromDomain creates a new persistence model from a domain LabTestRecipe.
func LabRecipeModelFromDomain(r *inventory.LabTestRecipe) *LabRecipeModel {
	now := time.Now()
	m := &LabRecipeModel{
		TestCode:   r.TestCode,
		UpdatedAt:  now,
		Components: make([]LabRecipeComponentModel, len(r.Components)),
	}
	for i, c := range r.Components {
		entity := shared.NewBaseEntity()
		m.Components[i] = LabRecipeComponentModel{
			BaseModel:       BaseModel{ID: entity.ID, CreatedAt: entity.CreatedAt, UpdatedAt: entity.UpdatedAt},
			TestCode:        r.TestCode,
			Position:        i + 1,
			ItemName:        c.ItemName,
			QuantityPerTest: c.QuantityPerTest,
		}
	}
	return m
}
