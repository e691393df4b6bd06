package entities

import (
	"fmt"
	"time"
)

// SupplySource identifies a kind of scheduled receipt
type SupplySource string

const (
	SupplyPurchaseOrder   SupplySource = "purchase_order"
	SupplyProductionOrder SupplySource = "production_order"
	SupplyPlannedOrder    SupplySource = "planned_order"
)

// SupplyLine represents supply already committed for an item.
// Quantities are net of allocations to other demand.
type SupplyLine struct {
	PartNumber   PartNumber
	Quantity     Quantity
	Unit         string // empty = item's canonical unit
	ExpectedDate time.Time
	Source       SupplySource
	SourceRef    string
}

// NewSupplyLine creates a validated SupplyLine
func NewSupplyLine(partNumber PartNumber, quantity Quantity, unit string, expectedDate time.Time, source SupplySource, sourceRef string) (*SupplyLine, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("quantity cannot be negative, got %s", quantity)
	}
	if expectedDate.IsZero() {
		return nil, fmt.Errorf("expected date cannot be empty")
	}
	switch source {
	case SupplyPurchaseOrder, SupplyProductionOrder, SupplyPlannedOrder:
	default:
		return nil, fmt.Errorf("unknown supply source %q", source)
	}
	return &SupplyLine{
		PartNumber:   partNumber,
		Quantity:     quantity,
		Unit:         unit,
		ExpectedDate: expectedDate,
		Source:       source,
		SourceRef:    sourceRef,
	}, nil
}

// OnHand is a net-of-allocation inventory position for an item
type OnHand struct {
	PartNumber PartNumber
	Quantity   Quantity
}
