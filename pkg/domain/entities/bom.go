package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BOMEdge is a single line of an item's active Bill of Materials
type BOMEdge struct {
	ParentPN    PartNumber
	ChildPN     PartNumber
	QtyPer      Quantity
	ScrapFactor Quantity // fraction in [0, 1)
	ChildUnit   string   // empty = child's canonical unit
}

// NewBOMEdge creates a validated BOMEdge
func NewBOMEdge(parentPN, childPN PartNumber, qtyPer, scrapFactor Quantity, childUnit string) (*BOMEdge, error) {
	edge := &BOMEdge{
		ParentPN:    parentPN,
		ChildPN:     childPN,
		QtyPer:      qtyPer,
		ScrapFactor: scrapFactor,
		ChildUnit:   childUnit,
	}
	if err := edge.Validate(); err != nil {
		return nil, err
	}
	return edge, nil
}

// Validate checks the structural fields of the edge
func (e *BOMEdge) Validate() error {
	if string(e.ParentPN) == "" {
		return fmt.Errorf("parent part number cannot be empty")
	}
	if string(e.ChildPN) == "" {
		return fmt.Errorf("child part number cannot be empty")
	}
	if e.ParentPN == e.ChildPN {
		return fmt.Errorf("parent and child part numbers cannot be the same: %s", e.ParentPN)
	}
	if !e.QtyPer.IsPositive() {
		return fmt.Errorf("quantity per must be positive, got %s", e.QtyPer)
	}
	return e.ValidateScrap()
}

// ValidateScrap checks that the scrap factor lies in [0, 1)
func (e *BOMEdge) ValidateScrap() error {
	if e.ScrapFactor.IsNegative() || e.ScrapFactor.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return &InvalidScrapFactorError{Parent: e.ParentPN, Component: e.ChildPN, Scrap: e.ScrapFactor}
	}
	return nil
}

// Extend returns the component quantity needed for parentQty, inflated by scrap.
// The result is in the edge's child unit.
func (e *BOMEdge) Extend(parentQty Quantity) (Quantity, error) {
	if err := e.ValidateScrap(); err != nil {
		return decimal.Zero, err
	}
	gross := parentQty.Mul(e.QtyPer)
	if e.ScrapFactor.IsZero() {
		return gross, nil
	}
	return gross.Div(decimal.NewFromInt(1).Sub(e.ScrapFactor)), nil
}
