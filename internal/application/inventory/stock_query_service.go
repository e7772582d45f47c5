package inventory

import (
	"context"
	"fmt"

	"github.com/hms/backend/internal/application/validation"
	"github.com/hms/backend/internal/domain/inventory"
)

// StockQueryService reads items and ledger history and maintains lab test
// recipes. None of its methods take row locks.
type StockQueryService struct {
	itemRepo   inventory.InventoryItemRepository
	ledgerRepo inventory.LedgerRepository
	recipeRepo inventory.LabRecipeRepository
}

// NewStockQueryService creates a new StockQueryService
func NewStockQueryService(
	itemRepo inventory.InventoryItemRepository,
	ledgerRepo inventory.LedgerRepository,
	recipeRepo inventory.LabRecipeRepository,
) *StockQueryService {
	return &StockQueryService{
		itemRepo:   itemRepo,
		ledgerRepo: ledgerRepo,
		recipeRepo: recipeRepo,
	}
}

// GetItem loads an item with its batches
func (s *StockQueryService) GetItem(ctx context.Context, department, name string) (*inventory.InventoryItem, error) {
	key, err := inventory.NewItemKey(inventory.Department(department), name)
	if err != nil {
		return nil, err
	}
	return s.itemRepo.FindByKey(ctx, key)
}

// ItemLedger loads an item and every ledger entry written for it
func (s *StockQueryService) ItemLedger(ctx context.Context, department, name string) (*ItemLedger, error) {
	item, err := s.GetItem(ctx, department, name)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.FindByItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger of %s: %w", item.Key(), err)
	}
	return &ItemLedger{Item: item, Entries: entries}, nil
}

// SaveLabRecipe replaces the default recipe of a lab test
func (s *StockQueryService) SaveLabRecipe(ctx context.Context, req SaveLabRecipeRequest) (*inventory.LabTestRecipe, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	components := make([]inventory.RecipeComponent, len(req.Components))
	for i, c := range req.Components {
		components[i] = inventory.RecipeComponent{ItemName: c.ItemName, QuantityPerTest: c.QuantityPerTest}
	}
	recipe, err := inventory.NewLabTestRecipe(req.TestCode, components)
	if err != nil {
		return nil, err
	}
	if err := s.recipeRepo.Save(ctx, recipe); err != nil {
		return nil, fmt.Errorf("save recipe %s: %w", recipe.TestCode, err)
	}
	return recipe, nil
}

// GetLabRecipe loads the default recipe of a lab test
func (s *StockQueryService) GetLabRecipe(ctx context.Context, testCode string) (*inventory.LabTestRecipe, error) {
	return s.recipeRepo.FindByTestCode(ctx, testCode)
}
