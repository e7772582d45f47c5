package inventory

import (
	"sort"
	"strings"

	"github.com/hms/backend/internal/domain/shared"
)

// Department owns a separate stock ledger
type Department string

const (
	DepartmentPharmacy Department = "PHARMACY"
	DepartmentLab      Department = "LAB"
)

// IsValid checks if the department is known
func (d Department) IsValid() bool {
	switch d {
	case DepartmentPharmacy, DepartmentLab:
		return true
	}
	return false
}

// ItemKey identifies a stockable item within a department
type ItemKey struct {
	Department Department
	Name       string
}

// NewItemKey validates and normalises an item key
func NewItemKey(department Department, name string) (ItemKey, error) {
	if !department.IsValid() {
		return ItemKey{}, shared.NewValidationError("department", "unknown department %q", department)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ItemKey{}, shared.NewValidationError("item_name", "cannot be empty")
	}
	if len(name) > 200 {
		return ItemKey{}, shared.NewValidationError("item_name", "cannot exceed 200 characters")
	}
	return ItemKey{Department: department, Name: name}, nil
}

// String renders the key as DEPARTMENT/name. Lock ordering compares these strings.
func (k ItemKey) String() string {
	return string(k.Department) + "/" + k.Name
}

// SortedUniqueKeys returns keys de-duplicated in ascending lock order
func SortedUniqueKeys(keys []ItemKey) []ItemKey {
	seen := make(map[ItemKey]struct{}, len(keys))
	out := make([]ItemKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
