package inventory

import (
	"strings"

	"github.com/hms/backend/internal/domain/shared"
)

// RecipeComponent is one lab item consumed per test performed
type RecipeComponent struct {
	ItemName        string
	QuantityPerTest int64
}

// LabTestRecipe is the default consumption of a lab test
type LabTestRecipe struct {
	TestCode   string
	Components []RecipeComponent
}

// NewLabTestRecipe validates a recipe
func NewLabTestRecipe(testCode string, components []RecipeComponent) (*LabTestRecipe, error) {
	testCode = strings.TrimSpace(testCode)
	if testCode == "" {
		return nil, shared.NewValidationError("test_code", "cannot be empty")
	}
	for _, c := range components {
		if strings.TrimSpace(c.ItemName) == "" {
			return nil, shared.NewValidationError("item_name", "cannot be empty")
		}
		if c.QuantityPerTest <= 0 {
			return nil, shared.NewValidationError("quantity_per_test", "must be positive, got %d", c.QuantityPerTest)
		}
	}
	return &LabTestRecipe{TestCode: testCode, Components: components}, nil
}

// Requirements returns the quantity of each item needed for count tests.
// Components naming the same item are summed.
func (r *LabTestRecipe) Requirements(count int64) map[string]int64 {
	out := make(map[string]int64, len(r.Components))
	for _, c := range r.Components {
		out[strings.TrimSpace(c.ItemName)] += c.QuantityPerTest * count
	}
	return out
}
