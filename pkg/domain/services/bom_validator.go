package services

import (
	"fmt"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// BOMValidator provides validation for BOM structure integrity
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	HasCycles      bool
	CyclePaths     [][]entities.PartNumber
	DuplicateLines []*entities.BOMEdge
	InvalidLines   []*entities.BOMEdge
	Errors         []string
}

// Valid reports whether no problem was found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateBOM checks every edge for structural problems and the edge set for cycles
func (v *BOMValidator) ValidateBOM(edges []*entities.BOMEdge) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:     make([][]entities.PartNumber, 0),
		DuplicateLines: make([]*entities.BOMEdge, 0),
		InvalidLines:   make([]*entities.BOMEdge, 0),
		Errors:         make([]string, 0),
	}

	for _, edge := range edges {
		if err := edge.Validate(); err != nil {
			result.InvalidLines = append(result.InvalidLines, edge)
			result.Errors = append(result.Errors, fmt.Sprintf("invalid BOM line %s -> %s: %v", edge.ParentPN, edge.ChildPN, err))
		}
	}

	result.CyclePaths = FindAllCycles(BuildAdjacency(edges))
	result.HasCycles = len(result.CyclePaths) > 0
	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}

	result.DuplicateLines = v.detectDuplicateLines(edges)
	if len(result.DuplicateLines) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("found %d duplicate BOM lines", len(result.DuplicateLines)))
	}

	return result
}

// detectDuplicateLines finds component lines repeated under the same parent
func (v *BOMValidator) detectDuplicateLines(edges []*entities.BOMEdge) []*entities.BOMEdge {
	seen := make(map[[2]entities.PartNumber]bool)
	duplicates := make([]*entities.BOMEdge, 0)

	for _, edge := range edges {
		key := [2]entities.PartNumber{edge.ParentPN, edge.ChildPN}
		if seen[key] {
			duplicates = append(duplicates, edge)
			continue
		}
		seen[key] = true
	}

	return duplicates
}

// ValidatePartNumberUniqueness validates that part numbers are unique across items
func (v *BOMValidator) ValidatePartNumberUniqueness(items []*entities.Item) *ValidationResult {
	result := &ValidationResult{
		Errors: make([]string, 0),
	}

	seen := make(map[entities.PartNumber]bool)
	duplicates := make([]entities.PartNumber, 0)

	for _, item := range items {
		if seen[item.PartNumber] {
			duplicates = append(duplicates, item.PartNumber)
		} else {
			seen[item.PartNumber] = true
		}
	}

	if len(duplicates) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("duplicate part numbers found: %v", duplicates))
	}

	return result
}
